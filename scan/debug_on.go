//go:build segscandebug

package scan

import "fmt"

func assertSlot(slot, slots int) {
	if slot < 0 || slot >= slots {
		panic(fmt.Sprintf("scan: tree slot %d out of range [0,%d)", slot, slots))
	}
}

func assertRange(i, lo, hi int, what string) {
	if i < lo || i >= hi {
		panic(fmt.Sprintf("scan: %s %d out of range [%d,%d)", what, i, lo, hi))
	}
}
