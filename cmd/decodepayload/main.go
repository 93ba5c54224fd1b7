// decodepayload reads one {"portnum": int, "payload_b64": string} object
// from stdin and writes the decoded protobuf as JSON to stdout. It exists
// so dashboard operators can inspect stored raw payloads.
package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rabarar/meshtastic"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

type request struct {
	Portnum    *int32  `json:"portnum"`
	PayloadB64 *string `json:"payload_b64"`
}

type response struct {
	Portnum int32           `json:"portnum"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func main() {
	if err := run(os.Stdin, os.Stdout); err != nil {
		_ = json.NewEncoder(os.Stdout).Encode(map[string]string{"error": err.Error()})
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer) error {
	input, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read stdin: %v", err)
	}

	var req request
	if err := json.Unmarshal(input, &req); err != nil {
		return fmt.Errorf("invalid JSON input: %v", err)
	}
	if req.Portnum == nil {
		return fmt.Errorf("missing field: portnum")
	}
	if req.PayloadB64 == nil {
		return fmt.Errorf("missing field: payload_b64")
	}

	payload, err := base64.StdEncoding.DecodeString(*req.PayloadB64)
	if err != nil {
		return fmt.Errorf("invalid base64 payload: %v", err)
	}

	kind, decoded, err := decodePayload(*req.Portnum, payload)
	if err != nil {
		return err
	}

	return json.NewEncoder(out).Encode(response{
		Portnum: *req.Portnum,
		Type:    kind,
		Payload: decoded,
	})
}

// decodePayload parses the raw application payload for the supported
// portnums. Port 4 carries a User message on the wire.
func decodePayload(portnum int32, payload []byte) (string, json.RawMessage, error) {
	var kind string
	var msg proto.Message

	switch portnum {
	case 3:
		kind, msg = "POSITION", &meshtastic.Position{}
	case 4:
		kind, msg = "NODEINFO", &meshtastic.User{}
	case 5:
		kind, msg = "ROUTING", &meshtastic.Routing{}
	case 67:
		kind, msg = "TELEMETRY", &meshtastic.Telemetry{}
	case 70:
		kind, msg = "TRACEROUTE", &meshtastic.RouteDiscovery{}
	case 71:
		kind, msg = "NEIGHBORINFO", &meshtastic.NeighborInfo{}
	default:
		return "", nil, fmt.Errorf("unsupported portnum: %d", portnum)
	}

	if err := proto.Unmarshal(payload, msg); err != nil {
		return "", nil, fmt.Errorf("decode %s payload: %v", kind, err)
	}

	rendered, err := protojson.Marshal(msg)
	if err != nil {
		return "", nil, fmt.Errorf("render %s payload: %v", kind, err)
	}

	return kind, rendered, nil
}
