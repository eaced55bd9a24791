package model

import (
	"errors"
	"strings"
	"time"
)

type Profile struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("model: profile id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("model: profile name is required")
	}
	if p.CreatedAt.IsZero() {
		return errors.New("model: profile created_at is required")
	}
	return nil
}
