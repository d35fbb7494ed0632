package soap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client posts a SOAP request to a charge point endpoint and decodes the
// response body. Used for OCPP 1.2/1.5 stations.
type Client interface {
	Call(ctx context.Context, endpoint, action, chargeBoxID string, request, response interface{}) error
}

// HTTPClient is the default Client over plain HTTP.
type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient builds a SOAP client with the given per-call timeout.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

type envelope struct {
	XMLName xml.Name `xml:"http://www.w3.org/2003/05/soap-envelope Envelope"`
	Header  header   `xml:"Header"`
	Body    body     `xml:"Body"`
}

type header struct {
	ChargeBoxIdentity string `xml:"urn://Ocpp/Cp/2012/06/ chargeBoxIdentity"`
	Action            string `xml:"http://www.w3.org/2005/08/addressing Action"`
	MessageID         string `xml:"http://www.w3.org/2005/08/addressing MessageID"`
	To                string `xml:"http://www.w3.org/2005/08/addressing To"`
}

type body struct {
	Content interface{} `xml:",any"`
}

type responseEnvelope struct {
	XMLName xml.Name        `xml:"Envelope"`
	Body    responseBodyRaw `xml:"Body"`
}

type responseBodyRaw struct {
	Inner []byte `xml:",innerxml"`
}

// Call implements Client.
func (c *HTTPClient) Call(ctx context.Context, endpoint, action, chargeBoxID string, request, response interface{}) error {
	env := envelope{
		Header: header{
			ChargeBoxIdentity: chargeBoxID,
			Action:            action,
			MessageID:         "urn:uuid:" + uuid.NewString(),
			To:                endpoint,
		},
		Body: body{Content: request},
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := xml.NewEncoder(&buf).Encode(env); err != nil {
		return fmt.Errorf("soap: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", `application/soap+xml; charset=utf-8; action="`+action+`"`)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("soap: call %s: %w", action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("soap: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("soap: call %s: unexpected status %d", action, resp.StatusCode)
	}

	var respEnv responseEnvelope
	if err := xml.Unmarshal(raw, &respEnv); err != nil {
		return fmt.Errorf("soap: decode envelope: %w", err)
	}
	if err := xml.Unmarshal(respEnv.Body.Inner, response); err != nil {
		return fmt.Errorf("soap: decode body: %w", err)
	}
	return nil
}
