package engine

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var ErrUnknownTier = errors.New("unknown tier")
var ErrNoVotes = errors.New("no votes cast")

type Tier string

const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
	TierE Tier = "E"
	TierF Tier = "F"
)

// Tiers is ordered best to worst; a tier's index is its weight.
var Tiers = []Tier{TierS, TierA, TierB, TierC, TierD, TierE, TierF}

func (t Tier) Valid() bool {
	return slices.Contains(Tiers, t)
}

// Weight returns 0 for S through 6 for F.
func (t Tier) Weight() (int, error) {
	w := slices.Index(Tiers, t)
	if w < 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTier, string(t))
	}
	return w, nil
}

func ParseTier(raw string) (Tier, error) {
	t := Tier(raw)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, raw)
	}
	return t, nil
}

type Participant struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// VotedTiers holds the current round's votes.
type VotedTiers map[Tier][]Participant

// TierResults holds every finished item, keyed by the tier it landed in.
type TierResults map[Tier][]string

type Aggregator struct {
	votes VotedTiers
}

func NewAggregator() *Aggregator {
	return &Aggregator{votes: NewVotedTiers()}
}

// Reset discards every vote.
func (a *Aggregator) Reset() {
	a.votes = NewVotedTiers()
}

// Votes returns a copy of the current votes.
func (a *Aggregator) Votes() VotedTiers {
	return a.votes.Clone()
}

// CastVote moves p into tier, removing any earlier vote by the same name.
func (a *Aggregator) CastVote(p Participant, tier Tier) error {
	if !tier.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTier, string(tier))
	}

	for t, ps := range a.votes {
		i := slices.IndexFunc(ps, func(q Participant) bool { return q.Name == p.Name })
		if i >= 0 {
			a.votes[t] = slices.Delete(ps, i, i+1)
			break
		}
	}
	a.votes[tier] = append(a.votes[tier], p)
	return nil
}

func (a *Aggregator) ComputeAverage() (Tier, error) {
	return Average(a.votes)
}

// Average rounds the weighted mean of votes half away from zero and maps it
// back onto a tier.
func Average(votes VotedTiers) (Tier, error) {
	sum, total := 0, 0
	for w, t := range Tiers {
		n := len(votes[t])
		sum += w * n
		total += n
	}
	if total == 0 {
		return "", ErrNoVotes
	}

	rounded := int(math.Round(float64(sum) / float64(total)))
	if rounded < 0 || rounded >= len(Tiers) {
		return "", fmt.Errorf("%w: average %d out of range", ErrUnknownTier, rounded)
	}
	return Tiers[rounded], nil
}
