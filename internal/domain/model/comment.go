package model

import "time"

// Comment — комментарий к заявке. Принадлежит ровно одной заявке,
// редактируется автором или администратором.
type Comment struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticketId"`
	AuthorID  int64     `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Edited возвращает true, если комментарий редактировался после создания.
func (c Comment) Edited() bool {
	return !c.UpdatedAt.Equal(c.CreatedAt)
}
