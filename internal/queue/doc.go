// Package queue stores pending directive blocks in a plain text document.
//
// A block is a run of non-blank lines; blocks are separated by one blank
// line. Leading blank lines are ignored and a trailing block without a
// separator is still a block. Operators and the engine UI append to the
// document with any text editor, so the format stays human-editable.
//
// Pop rewrites the remainder with a write-then-rename. There is no lock:
// an append that lands between Pop's read and its rename is lost. This is
// an accepted risk of sharing the document with processes that cannot
// cooperate on locking.
package queue
