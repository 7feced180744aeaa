package models

import (
	"fmt"
	"strconv"
	"strings"
)

type TicketStatus string

const (
	TicketOpen               TicketStatus = "Open"
	TicketWaitingOnRequester TicketStatus = "Waiting on Requester"
	TicketInProgress         TicketStatus = "In Progress"
	TicketResolved           TicketStatus = "Resolved"
)

// TicketStatuses is the fixed set reported by ticket metrics, in display order.
var TicketStatuses = []TicketStatus{TicketOpen, TicketWaitingOnRequester, TicketInProgress, TicketResolved}

func (s TicketStatus) Valid() bool {
	for _, v := range TicketStatuses {
		if v == s {
			return true
		}
	}
	return false
}

var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketWaitingOnRequester: {TicketOpen},
	TicketOpen:               {TicketWaitingOnRequester, TicketInProgress},
	TicketInProgress:         {TicketOpen, TicketResolved},
}

// CanTransition reports whether a downstream status change from s to next is
// allowed. Resolved is terminal.
func (s TicketStatus) CanTransition(next TicketStatus) bool {
	for _, v := range ticketTransitions[s] {
		if v == next {
			return true
		}
	}
	return false
}

const (
	TicketIDPrefix   = "FIN-"
	ticketIDBaseline = 1000
)

// NextTicketID derives the ID following last, the highest ID in the store.
// An empty store starts at FIN-1001. The second return value is false when
// last could not be parsed; callers should then use NextTicketIDAfter.
func NextTicketID(last string) (string, bool) {
	if last == "" {
		return FormatTicketID(ticketIDBaseline + 1), true
	}
	n, err := parseTicketSuffix(last)
	if err != nil {
		return FormatTicketID(ticketIDBaseline + 1), false
	}
	return FormatTicketID(n + 1), true
}

// NextTicketIDAfter returns the ID following the highest well-formed ID in
// ids. Malformed IDs are skipped; with none left it starts at FIN-1001.
func NextTicketIDAfter(ids []string) string {
	high := ticketIDBaseline
	for _, id := range ids {
		if n, err := parseTicketSuffix(id); err == nil && n > high {
			high = n
		}
	}
	return FormatTicketID(high + 1)
}

func FormatTicketID(n int) string {
	return fmt.Sprintf("%s%d", TicketIDPrefix, n)
}

func parseTicketSuffix(id string) (int, error) {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) < 2 {
		return 0, fmt.Errorf("ticket id %q has no numeric suffix", id)
	}
	return strconv.Atoi(parts[1])
}
