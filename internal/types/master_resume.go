// Package types provides type definitions for structured data used throughout the resume-tailor system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// Parent is a role, project or award that owns candidate bullets
type Parent struct {
	ID       string     `json:"id"`
	Type     ParentType `json:"type"`
	Company  string     `json:"company,omitempty"`
	Title    string     `json:"title,omitempty"`
	Name     string     `json:"name,omitempty"`
	Dates    string     `json:"dates,omitempty"`
	Location string     `json:"location,omitempty"`
}

// CandidateBullet is one selectable resume line from the master resume
type CandidateBullet struct {
	BulletID   string     `json:"bullet_id"`
	ParentType ParentType `json:"parent_type"`
	ParentID   string     `json:"parent_id"`
	Company    string     `json:"company,omitempty"`
	Role       string     `json:"role,omitempty"`
	Dates      string     `json:"dates,omitempty"`
	Location   string     `json:"location,omitempty"`
	Text       string     `json:"text"`
	Order      int        `json:"order"`
}

// WordCount returns the number of whitespace separated words in the bullet text
func (b CandidateBullet) WordCount() int {
	return len(strings.Fields(b.Text))
}

// MasterResume is the candidate's full bullet pool.
// Experience parents are listed in recency order, most recent first.
type MasterResume struct {
	ID      string            `json:"id,omitempty"`
	Parents []Parent          `json:"parents"`
	Bullets []CandidateBullet `json:"bullets"`
}

// ExperienceOrder returns the recency index of every experience parent
func (m *MasterResume) ExperienceOrder() map[string]int {
	order := make(map[string]int)
	idx := 0
	for _, p := range m.Parents {
		if p.Type != ParentExperience {
			continue
		}
		order[p.ID] = idx
		idx++
	}
	return order
}

// ParentIndex returns the position of every parent in the resume
func (m *MasterResume) ParentIndex() map[string]int {
	index := make(map[string]int, len(m.Parents))
	for i, p := range m.Parents {
		index[p.ID] = i
	}
	return index
}
