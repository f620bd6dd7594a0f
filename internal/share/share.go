// Package share builds the invite links users hand out and copies them to
// the system clipboard.
package share

import (
	"strings"

	"github.com/atotto/clipboard"
)

// JoinLink returns the group invite URL for a join code.
func JoinLink(origin, joinCode string) string {
	return strings.TrimRight(origin, "/") + "/join/" + joinCode
}

// GuestJoinLink returns the single-event guest invite URL for a code.
func GuestJoinLink(origin, guestJoinCode string) string {
	return strings.TrimRight(origin, "/") + "/join-event/" + guestJoinCode
}

// CopyJoinLink places the group invite link on the system clipboard.
func CopyJoinLink(origin, joinCode string) (string, error) {
	link := JoinLink(origin, joinCode)
	return link, clipboard.WriteAll(link)
}

// CopyGuestJoinLink places the guest invite link on the system clipboard.
func CopyGuestJoinLink(origin, guestJoinCode string) (string, error) {
	link := GuestJoinLink(origin, guestJoinCode)
	return link, clipboard.WriteAll(link)
}
