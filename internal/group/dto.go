package group

import "time"

// CreateGroupRequest represents the request to create a group.
// The creator always becomes the first member.
type CreateGroupRequest struct {
	Name      string  `json:"name"`
	MemberIDs []int64 `json:"member_ids,omitempty"`
}

// AddMemberRequest represents the request to add a member to a group
type AddMemberRequest struct {
	UserID            int64  `json:"user_id"`
	IsTemporary       bool   `json:"is_temporary,omitempty"`
	DeletionCondition string `json:"deletion_condition,omitempty"` // SETTLED or TIME_LIMIT
	ExpiresAt         string `json:"expires_at,omitempty"`         // RFC 3339, for TIME_LIMIT
}

// MemberResponse represents one member in a group response
type MemberResponse struct {
	UserID            int64  `json:"user_id"`
	Username          string `json:"username,omitempty"`
	IsTemporary       bool   `json:"is_temporary"`
	DeletionCondition string `json:"deletion_condition,omitempty"`
	ExpiresAt         string `json:"expires_at,omitempty"`
	Balance           string `json:"balance"`
	IsCurrentUser     bool   `json:"is_current_user"`
}

// GroupResponse represents the response for a group with its members
type GroupResponse struct {
	ID        int64             `json:"id"`
	Name      string            `json:"name"`
	CreatedBy int64             `json:"created_by"`
	CreatedAt string            `json:"created_at"`
	Members   []*MemberResponse `json:"members,omitempty"`
}

// ToResponse converts a Group and its members to a GroupResponse DTO.
// currentUserID marks the caller's own membership in the member list.
func ToResponse(g *Group, members []*Member, currentUserID int64) *GroupResponse {
	resp := &GroupResponse{
		ID:        g.ID,
		Name:      g.Name,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, m := range members {
		mr := &MemberResponse{
			UserID:        m.UserID,
			Username:      m.Username,
			IsTemporary:   m.IsTemporary,
			Balance:       m.Balance.String(),
			IsCurrentUser: m.UserID == currentUserID,
		}
		if m.DeletionCondition != nil {
			mr.DeletionCondition = string(*m.DeletionCondition)
		}
		if m.ExpiresAt != nil {
			mr.ExpiresAt = m.ExpiresAt.UTC().Format(time.RFC3339)
		}
		resp.Members = append(resp.Members, mr)
	}
	return resp
}
