// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package aggregate

import (
	"math"
	"sort"

	"github.com/danielhkuo/oxpoll/models"
)

// MaxFrequencies caps the free-text frequency table
const MaxFrequencies = 100

// Answer is the minimal view of a stored response the engine needs.
// Fingerprints are only counted, never copied into the output.
type Answer struct {
	Fingerprint string
	Value       string
}

// Binary tallies O/X choices. Percentages are rounded to one decimal and
// are 0 when there are no votes.
func Binary(choices []string) models.BinaryTally {
	var tally models.BinaryTally
	for _, c := range choices {
		switch c {
		case models.ChoiceO:
			tally.OVotes++
		case models.ChoiceX:
			tally.XVotes++
		}
	}
	tally.TotalVotes = tally.OVotes + tally.XVotes

	tally.OPercentage = percentage(tally.OVotes, tally.TotalVotes)
	tally.XPercentage = percentage(tally.XVotes, tally.TotalVotes)
	return tally
}

// FreeText builds the frequency table. answers must be in submission order;
// equal counts keep first-seen order.
func FreeText(answers []Answer) models.FreeTextTable {
	counts := make(map[string]int)
	var order []string
	participants := make(map[string]struct{})

	for _, a := range answers {
		if _, seen := counts[a.Value]; !seen {
			order = append(order, a.Value)
		}
		counts[a.Value]++
		participants[a.Fingerprint] = struct{}{}
	}

	entries := make([]models.FrequencyEntry, len(order))
	for i, v := range order {
		entries[i] = models.FrequencyEntry{Value: v, Count: counts[v]}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	if len(entries) > MaxFrequencies {
		entries = entries[:MaxFrequencies]
	}

	return models.FreeTextTable{
		TotalResponses:     len(answers),
		UniqueParticipants: len(participants),
		Frequencies:        entries,
	}
}

// BinarySnapshot wraps a binary tally with the poll's public state
func BinarySnapshot(poll models.Poll, choices []string) models.Snapshot {
	snap := baseSnapshot(poll)
	tally := Binary(choices)
	snap.Tally = &tally
	return snap
}

// FreeTextSnapshot wraps a frequency table with the poll's public state
func FreeTextSnapshot(poll models.Poll, answers []Answer) models.Snapshot {
	snap := baseSnapshot(poll)
	table := FreeText(answers)
	snap.Table = &table
	return snap
}

func baseSnapshot(poll models.Poll) models.Snapshot {
	return models.Snapshot{
		PollID:      poll.ID,
		ShortCode:   poll.ShortCode,
		Text:        poll.Text,
		Kind:        poll.Kind,
		IsActive:    poll.IsActive,
		ShowResults: poll.ShowResults,
	}
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}
