package model

// Realtime event types carried in the "type" field of a frame.
const (
	EventJoin               = "join"
	EventJoined             = "joined"
	EventPing               = "ping"
	EventPong               = "pong"
	EventSendMessage        = "send_message"
	EventMessageAck         = "message_ack"
	EventReceiveMessage     = "receive_message"
	EventFollowRequest      = "follow_request"
	EventConnectionAccepted = "connection_accepted"
	EventError              = "error"
)
