package decorator

// NewThread returns a thread decorator. PID is dropped if it equals to ID.
func NewThread(ID, PID string) *Thread {
	realPID := ""
	if ID != PID {
		realPID = PID
	}
	return &Thread{ID: ID, PID: realPID}
}

// CheckThread makes sure that thread has an ID. Messages which start a thread
// don't carry ~thread, and then their own @id is the thread ID.
func CheckThread(thread *Thread, ID string) *Thread {
	if thread == nil {
		return &Thread{ID: ID}
	}
	if thread.ID == "" {
		thread.ID = ID
	}
	return thread
}

// ReplyThread calculates the thread for a reply to a message with msgID and
// optional thread decorator. The reply inherits the thread if there is one,
// otherwise the replied message starts the thread.
func ReplyThread(msgID string, thread *Thread) *Thread {
	if thread == nil || thread.ID == "" {
		return &Thread{ID: msgID}
	}
	return &Thread{ID: thread.ID, PID: thread.PID}
}
