// Package ui contains the Bubble Tea program that powers the easyhg
// dashboard. The package is structured so the Model type focuses on message
// orchestration, while dedicated helpers own actions, input, mouse handling,
// rendering, and snapshot application.
//
// Message flow:
//   - Bubble Tea invokes Model.Update with incoming messages.
//   - Update forwards non-key messages to the text-input modal when one is
//     open (cursor blinks), then routes the message through a typed handler
//     registry so each tea.Msg is handled by a focused function (key
//     dispatch, snapshot application, action completion, repo events).
//   - Key handling is layered: an open confirmation modal wins over an open
//     input modal, which wins over the command palette; only when no modal
//     consumes the key is it resolved through the keymap into an action.
//
// State ownership:
//   - Per-panel cursor/offset state lives in internal/ui/state.Panel, and the
//     commit file picks in internal/ui/state.Selection; both are re-clamped
//     after every snapshot refresh.
//   - The repository snapshot is an immutable hg.RepoSnapshot replaced
//     wholesale when a refresh completes. Every refresh carries a generation
//     number and every detail fetch a request id; completions that lost the
//     race are dropped instead of applied.
//   - Mutating commands run through the internal/ui/command bus, which wraps
//     them into tea.Cmd values and emits trace events.
//
// Backend interactions:
//   - A backend.Watcher streams debounced repository-change events; Update
//     waits for those events and marks the shared refresh throttle ready so
//     the next 250ms tick refreshes immediately. Without a watcher the
//     dashboard degrades to pure periodic polling.
//   - The one deliberate exception to "never block the loop" is the
//     interactive commit: tea.ExecProcess suspends the dashboard, runs
//     hg commit -i attached to the real terminal, and resumes with a full
//     refresh afterwards.
//
// This separation keeps Model.Update compact and makes it easier to test
// independent concerns (snapshot application, the rebase picker, modal
// input) without needing to reason about the entire TUI at once.
package ui
