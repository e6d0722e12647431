package chatgpt

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kbukum/voicekit/transcription"
)

const (
	// callbackPath is the fixed path the injected script reports to.
	callbackPath = "/voice/chatgpt-transcribe-callback"
	// maxCallbackRequestBytes hard-caps a single callback request so a
	// misbehaving page cannot make the listener read unbounded data.
	maxCallbackRequestBytes = 256 * 1024
)

// callbackListener is a single-use loopback listener that waits for the
// injected script's callback. It is bound immediately before a bridged
// call and closed as soon as the call resolves or times out; it is never
// reused across calls.
type callbackListener struct {
	ln net.Listener
}

// newCallbackListener binds a fresh listener on a loopback port chosen by
// the OS.
func newCallbackListener() (*callbackListener, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, transcription.NetworkError(
			fmt.Sprintf("Failed to bind bridge callback listener: %v", err))
	}
	return &callbackListener{ln: ln}, nil
}

// URL builds the callback URL for the given request id, embedding the
// port this listener is actually bound to.
func (l *callbackListener) URL(requestID string) string {
	port := l.ln.Addr().(*net.TCPAddr).Port
	return fmt.Sprintf("http://127.0.0.1:%d%s?requestId=%s", port, callbackPath, url.QueryEscape(requestID))
}

// Close releases the listener. Safe to call more than once.
func (l *callbackListener) Close() { _ = l.ln.Close() }

// Await accepts connections until a callback carrying expectedID arrives,
// the timeout elapses, or ctx is cancelled. Requests for other paths get
// 404, callbacks with a stale or foreign request id get 202 and are
// discarded; only an exact id match resolves the call, and it does so at
// most once. The listener is closed before Await returns.
func (l *callbackListener) Await(ctx context.Context, timeout time.Duration, expectedID string) (*bridgeCallback, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	defer l.Close()

	type outcome struct {
		callback *bridgeCallback
		err      error
	}
	done := make(chan outcome, 1)

	go func() {
		callback, err := l.acceptLoop(expectedID)
		done <- outcome{callback: callback, err: err}
	}()

	select {
	case <-ctx.Done():
		l.Close()
		return nil, transcription.NetworkError("Timed out waiting for bridge transcription response")
	case result := <-done:
		return result.callback, result.err
	}
}

func (l *callbackListener) acceptLoop(expectedID string) (*bridgeCallback, error) {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			return nil, transcription.NetworkError(
				fmt.Sprintf("Failed to accept bridge callback connection: %v", err))
		}

		callback, resolved, err := handleCallbackConn(conn, expectedID)
		if err != nil {
			return nil, err
		}
		if resolved {
			return callback, nil
		}
	}
}

// handleCallbackConn parses one connection. resolved is true only for the
// first request whose id matches the outstanding one; parse failures fail
// the in-flight call rather than crashing the listener.
func handleCallbackConn(conn net.Conn, expectedID string) (callback *bridgeCallback, resolved bool, err error) {
	defer conn.Close()

	req, err := readMiniRequest(conn)
	if err != nil {
		return nil, false, err
	}

	if req.method != "GET" && req.method != "POST" {
		respondMini(conn, "405 Method Not Allowed", "Method not allowed")
		return nil, false, nil
	}

	target, err := url.Parse("http://localhost" + req.target)
	if err != nil {
		return nil, false, transcription.InvalidResponseError(
			fmt.Sprintf("Failed to parse bridge callback URL: %v", err))
	}
	if target.Path != callbackPath {
		respondMini(conn, "404 Not Found", "Not found")
		return nil, false, nil
	}

	payloadJSON := target.Query().Get("payload")
	if payloadJSON == "" {
		payloadJSON = strings.TrimSpace(req.body)
	}
	if payloadJSON == "" {
		respondMini(conn, "400 Bad Request", "Missing payload")
		return nil, false, nil
	}

	var parsed bridgeCallback
	if err := json.Unmarshal([]byte(payloadJSON), &parsed); err != nil {
		return nil, false, transcription.InvalidResponseError(
			fmt.Sprintf("Bridge callback payload was invalid JSON: %v", err))
	}

	if parsed.RequestID != expectedID {
		// Duplicate or late navigation from an earlier call; absorb it
		// without failing the in-flight request.
		respondMini(conn, "202 Accepted", "Ignored")
		return nil, false, nil
	}

	respondMini(conn, "204 No Content", "")
	return &parsed, true, nil
}

// miniRequest is the minimal HTTP request shape the listener understands.
// It isolates the hand-rolled parsing so the correlation and timeout logic
// above it never touches raw bytes.
type miniRequest struct {
	method string
	target string
	body   string
}

// readMiniRequest reads one HTTP request from conn: request line, headers
// up to the blank line, then a Content-Length-bounded body, with a hard
// cap on total bytes.
func readMiniRequest(conn net.Conn) (*miniRequest, error) {
	buffer := make([]byte, 0, 4096)
	chunk := make([]byte, 2048)
	headerEnd := -1

	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			buffer = append(buffer, chunk[:n]...)
			if len(buffer) > maxCallbackRequestBytes {
				return nil, transcription.InvalidResponseError("Bridge callback exceeded max request size")
			}
			if idx := strings.Index(string(buffer), "\r\n\r\n"); idx >= 0 {
				headerEnd = idx + 4
				break
			}
		}
		if err != nil {
			break
		}
	}

	if headerEnd < 0 {
		return nil, transcription.InvalidResponseError("Bridge callback did not include HTTP headers")
	}

	headerText := string(buffer[:headerEnd])
	if !utf8.ValidString(headerText) {
		return nil, transcription.InvalidResponseError("Bridge callback headers were not UTF-8")
	}

	method, target, err := parseRequestLine(headerText)
	if err != nil {
		return nil, err
	}
	contentLength := parseContentLength(headerText)

	body := buffer[headerEnd:]
	for len(body) < contentLength {
		n, err := conn.Read(chunk)
		if n > 0 {
			body = append(body, chunk[:n]...)
			if headerEnd+len(body) > maxCallbackRequestBytes {
				return nil, transcription.InvalidResponseError("Bridge callback exceeded max body size")
			}
		}
		if err != nil {
			break
		}
	}

	bodyText := ""
	if contentLength > 0 {
		capped := contentLength
		if capped > len(body) {
			capped = len(body)
		}
		bodyText = string(body[:capped])
		if !utf8.ValidString(bodyText) {
			return nil, transcription.InvalidResponseError("Bridge callback body was not UTF-8")
		}
	}

	return &miniRequest{method: method, target: target, body: bodyText}, nil
}

func parseRequestLine(headerText string) (method, target string, err error) {
	line, _, _ := strings.Cut(headerText, "\r\n")
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return "", "", transcription.InvalidResponseError("Bridge callback missing request line")
	}
	return parts[0], parts[1], nil
}

func parseContentLength(headerText string) int {
	for _, line := range strings.Split(headerText, "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "content-length") {
			continue
		}
		if length, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && length >= 0 {
			return length
		}
	}
	return 0
}

// respondMini writes a minimal HTTP response and half-closes the socket.
func respondMini(conn net.Conn, status, body string) {
	response := fmt.Sprintf(
		"HTTP/1.1 %s\r\nContent-Type: text/plain; charset=utf-8\r\nAccess-Control-Allow-Origin: *\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s",
		status, len(body), body)
	_, _ = conn.Write([]byte(response))
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}
}
