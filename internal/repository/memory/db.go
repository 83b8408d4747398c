// Package memory держит все таблицы в памяти процесса.
// Семантика совпадает с postgres репозиториями: те же ошибки, тот же порядок выдачи.
package memory

import (
	"sync"
	"time"

	"github.com/Freeeeeet/wellness_hub/internal/model"
)

type pair struct {
	lo, hi int64
}

func pairOf(a, b int64) pair {
	lo, hi := model.PairKey(a, b)
	return pair{lo: lo, hi: hi}
}

type conversation struct {
	id      int64
	lastSeq int64
}

type gradeKey struct {
	studentID int64
	subject   string
	term      string
}

type clientKey struct {
	senderID    int64
	clientMsgID string
}

// DB общее хранилище, разделяемое всеми репозиториями
type DB struct {
	mu sync.RWMutex

	// Now источник времени для created_at; подменяется в тестах
	Now func() time.Time

	seq int64

	users          map[int64]*model.User
	followRequests map[int64]*model.FollowRequest
	connections    map[pair]*model.Connection
	conversations  map[pair]*conversation
	messages       map[int64]*model.Message
	messagesByKey  map[clientKey]int64
	posts          map[int64]*model.Post
	answers        map[int64]*model.Answer
	grades         map[gradeKey]*model.Grade
	moods          map[int64]*model.MoodEntry
	groups         map[int64]*model.Group
	groupMembers   map[int64]map[int64]*model.GroupMember
}

// NewDB создаёт пустое хранилище
func NewDB() *DB {
	return &DB{
		Now:            time.Now,
		users:          make(map[int64]*model.User),
		followRequests: make(map[int64]*model.FollowRequest),
		connections:    make(map[pair]*model.Connection),
		conversations:  make(map[pair]*conversation),
		messages:       make(map[int64]*model.Message),
		messagesByKey:  make(map[clientKey]int64),
		posts:          make(map[int64]*model.Post),
		answers:        make(map[int64]*model.Answer),
		grades:         make(map[gradeKey]*model.Grade),
		moods:          make(map[int64]*model.MoodEntry),
		groups:         make(map[int64]*model.Group),
		groupMembers:   make(map[int64]map[int64]*model.GroupMember),
	}
}

// nextID выдаёт идентификаторы; вызывать под mu
func (db *DB) nextID() int64 {
	db.seq++
	return db.seq
}

func (db *DB) now() time.Time {
	return db.Now().UTC()
}

// Stores собирает все репозитории над одним DB
type Stores struct {
	Users          *UserRepository
	FollowRequests *FollowRequestRepository
	Connections    *ConnectionRepository
	Messages       *MessageRepository
	Posts          *PostRepository
	Grades         *GradeRepository
	Moods          *MoodRepository
	Groups         *GroupRepository
}

func NewStores(db *DB) *Stores {
	return &Stores{
		Users:          NewUserRepository(db),
		FollowRequests: NewFollowRequestRepository(db),
		Connections:    NewConnectionRepository(db),
		Messages:       NewMessageRepository(db),
		Posts:          NewPostRepository(db),
		Grades:         NewGradeRepository(db),
		Moods:          NewMoodRepository(db),
		Groups:         NewGroupRepository(db),
	}
}
