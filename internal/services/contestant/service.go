// Package contestant looks up contestants registered on the score server.
package contestant

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("contestant not found")
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

type Contestant struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"displayName"`
	Team        Team    `json:"team"`
	Profile     Profile `json:"profile"`
	DiscordID   string  `json:"discordId"`
}

type Team struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Organization string `json:"organization"`
	MemberLimit  uint32 `json:"memberLimit"`
}

type Profile struct {
	SelfIntroduction string `json:"selfIntroduction"`
}

type Service interface {
	Contestants(ctx context.Context) ([]Contestant, error)
	Contestant(ctx context.Context, discordID string) (Contestant, error)
}

func find(contestants []Contestant, discordID string) (Contestant, error) {
	for _, contestant := range contestants {
		if contestant.DiscordID == discordID {
			return contestant, nil
		}
	}

	return Contestant{}, ErrNotFound
}

// Fake serves a fixed pair of contestants.
type Fake struct{}

func (Fake) Contestants(_ context.Context) ([]Contestant, error) {
	return []Contestant{
		{
			Name:        "Alice",
			DisplayName: "Alice",
			Team:        Team{Code: "1", Name: "Team1", Organization: "Organization1", MemberLimit: 3},
			Profile:     Profile{SelfIntroduction: "I'm Alice"},
			DiscordID:   "414035444792164353",
		},
		{
			Name:        "Bob",
			DisplayName: "Bob",
			Team:        Team{Code: "2", Name: "Team2", Organization: "Organization2", MemberLimit: 3},
			Profile:     Profile{SelfIntroduction: "I'm Bob"},
			DiscordID:   "2345678901",
		},
	}, nil
}

func (f Fake) Contestant(ctx context.Context, discordID string) (Contestant, error) {
	contestants, err := f.Contestants(ctx)
	if err != nil {
		return Contestant{}, err
	}

	return find(contestants, discordID)
}
