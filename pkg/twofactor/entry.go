package twofactor

import (
	"errors"
	"fmt"
	"sync"
)

// ErrEntryComplete reports input into an entry that already auto-submitted.
var ErrEntryComplete = errors.New("twofactor: entry already submitted")

// Entry models the six single-digit input cells of the TOTP screen. It owns
// the auto-submit rule: the submit callback fires exactly once, with the full
// code, the moment the last cell is populated. Pasting a complete code into
// any cell populates all cells and submits immediately, it never produces
// per-digit partial submissions.
type Entry struct {
	mu        sync.Mutex
	cells     [TOTPCodeLength]byte
	filled    int
	submitted bool
	submit    func(code string)
}

// NewEntry returns an Entry that calls submit with the complete code.
func NewEntry(submit func(code string)) *Entry {
	return &Entry{submit: submit}
}

// Input applies user input at the given cell. Text may be a single digit or
// a pasted string; a paste containing a full code fills every cell.
// Non-numeric input is rejected without mutating any cell.
func (e *Entry) Input(cell int, text string) error {
	if cell < 0 || cell >= TOTPCodeLength {
		return fmt.Errorf("twofactor: cell %d out of range", cell)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.submitted {
		return ErrEntryComplete
	}

	// Full-code paste fills all cells regardless of which cell received it.
	if len(text) >= TOTPCodeLength {
		if err := ValidateTOTPCode(text[:TOTPCodeLength]); err != nil {
			return err
		}
		for i := 0; i < TOTPCodeLength; i++ {
			e.cells[i] = text[i]
		}
		e.filled = TOTPCodeLength
		e.fireLocked()
		return nil
	}

	if len(text) != 1 || text[0] < '0' || text[0] > '9' {
		return ErrInvalidTOTPCode
	}

	if e.cells[cell] == 0 {
		e.filled++
	}
	e.cells[cell] = text[0]

	if e.filled == TOTPCodeLength {
		e.fireLocked()
	}
	return nil
}

// Code returns the digits entered so far.
func (e *Entry) Code() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]byte, 0, TOTPCodeLength)
	for _, c := range e.cells {
		if c != 0 {
			out = append(out, c)
		}
	}
	return string(out)
}

// Reset clears all cells so the user can retry after a failed verification.
func (e *Entry) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cells = [TOTPCodeLength]byte{}
	e.filled = 0
	e.submitted = false
}

func (e *Entry) fireLocked() {
	if e.submitted {
		return
	}
	e.submitted = true
	code := string(e.cells[:])
	if e.submit != nil {
		// Release the lock across the callback so a handler may Reset on
		// failure without deadlocking.
		e.mu.Unlock()
		e.submit(code)
		e.mu.Lock()
	}
}
