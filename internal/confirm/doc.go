// Package confirm implements the user-facing question asked for every changed
// or new cleaner definition file: keep it (trust the new contents) or delete it.
//
// Three front ends satisfy recognizer.Confirmer:
//   - Dialog: a modal terminal dialog (Bubble Tea) with Add/Delete buttons
//   - Prompter: a line-based prompt for pipes and dumb terminals
//   - Static: a fixed answer for unattended runs (--yes / --no)
//
// The interactive front ends default to Delete.
package confirm
