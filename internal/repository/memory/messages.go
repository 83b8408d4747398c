package memory

import (
	"context"
	"sort"

	"github.com/Freeeeeet/wellness_hub/internal/model"
)

type MessageRepository struct {
	db *DB
}

func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Append(ctx context.Context, msg *model.Message) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := clientKey{senderID: msg.SenderID, clientMsgID: msg.ClientMsgID}
	if id, ok := r.db.messagesByKey[key]; ok {
		*msg = *r.db.messages[id]
		return false, nil
	}

	p := pairOf(msg.SenderID, msg.ReceiverID)
	conv, ok := r.db.conversations[p]
	if !ok {
		conv = &conversation{id: r.db.nextID()}
		r.db.conversations[p] = conv
	}
	conv.lastSeq++

	msg.ID = r.db.nextID()
	msg.ConversationID = conv.id
	msg.Seq = conv.lastSeq
	msg.CreatedAt = r.db.now()

	stored := *msg
	r.db.messages[msg.ID] = &stored
	r.db.messagesByKey[key] = msg.ID
	return true, nil
}

func (r *MessageRepository) GetByClientID(ctx context.Context, senderID int64, clientMsgID string) (*model.Message, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.messagesByKey[clientKey{senderID: senderID, clientMsgID: clientMsgID}]
	if !ok {
		return nil, nil
	}
	c := *r.db.messages[id]
	return &c, nil
}

func (r *MessageRepository) ListBetween(ctx context.Context, a, b, afterSeq int64, limit int) ([]*model.Message, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := []*model.Message{}
	conv, ok := r.db.conversations[pairOf(a, b)]
	if !ok {
		return out, nil
	}

	for _, m := range r.db.messages {
		if m.ConversationID == conv.id && m.Seq > afterSeq {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
