// Package recognizer decides whether each local cleaner definition file is
// known, changed, or new, and resolves every changed or new file exactly once
// by asking the user to trust it or delete it.
//
// A Recognizer is built from its collaborators (trust store, confirmer) and
// performs no I/O until Classify, Status, or Scan is called. Scan hashes files
// in parallel but prompts and mutates strictly in input order, so the user
// always sees the same sequence of questions for the same file list.
//
// Per-file problems (unreadable file, failed or refused deletion) are recorded
// on the file's Result and the scan moves on. Trust store and confirmer
// failures abort the scan.
package recognizer
