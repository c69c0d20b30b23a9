package engine

// NewVotedTiers returns a VotedTiers with an empty list for every tier.
func NewVotedTiers() VotedTiers {
	v := make(VotedTiers, len(Tiers))
	for _, t := range Tiers {
		v[t] = []Participant{}
	}
	return v
}

func NewTierResults() TierResults {
	r := make(TierResults, len(Tiers))
	for _, t := range Tiers {
		r[t] = []string{}
	}
	return r
}

func (v VotedTiers) Clone() VotedTiers {
	out := make(VotedTiers, len(v))
	for t, ps := range v {
		out[t] = append([]Participant{}, ps...)
	}
	return out
}

func (r TierResults) Clone() TierResults {
	out := make(TierResults, len(r))
	for t, items := range r {
		out[t] = append([]string{}, items...)
	}
	return out
}

// Len counts entries across every tier.
func (r TierResults) Len() int {
	n := 0
	for _, items := range r {
		n += len(items)
	}
	return n
}

func (v VotedTiers) Total() int {
	n := 0
	for _, ps := range v {
		n += len(ps)
	}
	return n
}
