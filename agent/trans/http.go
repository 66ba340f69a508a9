package trans

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// errorMessageMaxLength is the maximum length of the response body we will
// include into the generated error message
const errorMessageMaxLength = 80

// HTTP posts the data to the endpoint. MediaType is the content type,
// the default is application/ssi-agent-wire.
type HTTP struct {
	Client    *http.Client
	Timeout   time.Duration
	MediaType string
}

func (h *HTTP) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return http.DefaultClient
}

func (h *HTTP) Send(ctx context.Context, endpoint string, data []byte) (err error) {
	defer err2.Handle(&err, "call http")

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	request := try.To1(http.NewRequestWithContext(ctx, http.MethodPost,
		endpoint, bytes.NewReader(data)))
	request.Close = true // deferred response.Body.Close isn't always enough
	mediaType := h.MediaType
	if mediaType == "" {
		mediaType = MediaType
	}
	request.Header.Set("Content-Type", mediaType)

	response := try.To1(h.client().Do(request))
	defer func() {
		closeErr := response.Body.Close()
		if closeErr != nil {
			glog.Warningln("body.Close: ", closeErr)
		}
	}()

	body := try.To1(io.ReadAll(response.Body))
	return checkHTTPStatus(response, body)
}

// checkHTTPStatus checks the status code and gets the server message
func checkHTTPStatus(response *http.Response, data []byte) error {
	if response.StatusCode/100 == 2 {
		return nil
	}
	glog.Warning("http code:", response.Status)
	contentType := response.Header.Get("Content-type")
	// from our server: text/plain; charset=utf-8
	if strings.HasPrefix(contentType, "text/plain") {
		return fmt.Errorf("%s: %s",
			response.Status, data[0:min(errorMessageMaxLength, len(data))])
	}
	return fmt.Errorf("%v", response.Status)
}
