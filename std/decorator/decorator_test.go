package decorator

import (
	"reflect"
	"testing"

	"github.com/lainio/err2/assert"
)

func TestNewThread(t *testing.T) {
	type args struct {
		ID  string
		PID string
	}
	tests := []struct {
		name string
		args args
		want *Thread
	}{
		{"PID empty", args{ID: "12345", PID: ""}, &Thread{ID: "12345"}},
		{"PID same", args{ID: "12345", PID: "12345"}, &Thread{ID: "12345"}},
		{"PID different", args{ID: "12345", PID: "123456"}, &Thread{ID: "12345", PID: "123456"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewThread(tt.args.ID, tt.args.PID); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NewThread() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckThread(t *testing.T) {
	orgID := "ORG_ID_VALUE"
	id := "ID_VALUE"
	pid := "PID_VALUE"

	tests := []struct {
		name   string
		thread *Thread
		want   *Thread
	}{
		{"was nil", nil, &Thread{ID: id}},
		{"was empty", &Thread{}, &Thread{ID: id}},
		{"was pid", &Thread{PID: pid}, &Thread{ID: id, PID: pid}},
		{"was org", &Thread{ID: orgID}, &Thread{ID: orgID}},
		{"was org and pid", &Thread{ID: orgID, PID: pid}, &Thread{ID: orgID, PID: pid}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckThread(tt.thread, id); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CheckThread() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReplyThread(t *testing.T) {
	tests := []struct {
		name   string
		thread *Thread
		want   *Thread
	}{
		{"no thread", nil, &Thread{ID: "msg-id"}},
		{"empty thread", &Thread{}, &Thread{ID: "msg-id"}},
		{"inherit", &Thread{ID: "th-1"}, &Thread{ID: "th-1"}},
		{"inherit parent", &Thread{ID: "th-1", PID: "p-1"}, &Thread{ID: "th-1", PID: "p-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			assert.DeepEqual(ReplyThread("msg-id", tt.thread), tt.want)
		})
	}
}

func TestAttachment(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	a := NewAttachment("offer-0", []byte(`{"a":1}`))
	data, err := FirstAttachment(a)
	assert.NoError(err)
	assert.Equal(string(data), `{"a":1}`)

	_, err = FirstAttachment(nil)
	assert.Error(err)
}
