package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/wellness_hub/internal/model"
	"github.com/Freeeeeet/wellness_hub/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const messageColumns = `m.id, m.conversation_id, m.seq, m.sender_id, m.receiver_id, m.client_msg_id, m.text, m.created_at`

type MessageRepository struct {
	db *base.Repository
}

func NewMessageRepository(db *base.Repository) *MessageRepository {
	return &MessageRepository{db: db}
}

func scanMessage(row pgx.Row) (*model.Message, error) {
	var msg model.Message
	err := row.Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.Seq,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.ClientMsgID,
		&msg.Text,
		&msg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Append сохраняет сообщение и выдаёт ему следующий seq в разговоре.
// Повтор с тем же (sender_id, client_msg_id) возвращает уже сохранённое сообщение и created=false.
func (r *MessageRepository) Append(ctx context.Context, msg *model.Message) (bool, error) {
	existing, err := r.GetByClientID(ctx, msg.SenderID, msg.ClientMsgID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		*msg = *existing
		return false, nil
	}

	lo, hi := model.PairKey(msg.SenderID, msg.ReceiverID)

	err = r.db.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO conversations (user_lo, user_hi, last_seq)
			VALUES ($1, $2, 1)
			ON CONFLICT (user_lo, user_hi) DO UPDATE SET last_seq = conversations.last_seq + 1
			RETURNING id, last_seq
		`, lo, hi).Scan(&msg.ConversationID, &msg.Seq)
		if err != nil {
			return fmt.Errorf("allocate seq: %w", err)
		}

		return tx.QueryRow(ctx, `
			INSERT INTO messages (conversation_id, seq, sender_id, receiver_id, client_msg_id, text)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`,
			msg.ConversationID,
			msg.Seq,
			msg.SenderID,
			msg.ReceiverID,
			msg.ClientMsgID,
			msg.Text,
		).Scan(&msg.ID, &msg.CreatedAt)
	})

	if err != nil {
		// параллельный повтор той же отправки
		if base.IsUniqueViolation(err) {
			existing, getErr := r.GetByClientID(ctx, msg.SenderID, msg.ClientMsgID)
			if getErr != nil {
				return false, getErr
			}
			if existing != nil {
				*msg = *existing
				return false, nil
			}
		}
		return false, fmt.Errorf("append message: %w", err)
	}

	return true, nil
}

// ListBetween получает историю пары по возрастанию seq
func (r *MessageRepository) ListBetween(ctx context.Context, a, b, afterSeq int64, limit int) ([]*model.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.user_lo = $1 AND c.user_hi = $2 AND m.seq > $3
		ORDER BY m.seq ASC
		LIMIT $4
	`

	lo, hi := model.PairKey(a, b)

	rows, err := r.db.Query(ctx, query, lo, hi, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	messages := []*model.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// GetByClientID ищет сообщение отправителя по client_msg_id; nil если его нет
func (r *MessageRepository) GetByClientID(ctx context.Context, senderID int64, clientMsgID string) (*model.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		WHERE m.sender_id = $1 AND m.client_msg_id = $2
	`

	msg, err := scanMessage(r.db.QueryRow(ctx, query, senderID, clientMsgID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get message by client id: %w", err)
	}

	return msg, nil
}
