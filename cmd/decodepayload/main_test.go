package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rabarar/meshtastic"
	"google.golang.org/protobuf/proto"
)

func runTool(t *testing.T, input string) (response, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(strings.NewReader(input), &out)
	if err != nil {
		return response{}, err
	}

	var resp response
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}

	return resp, nil
}

func TestDecodePositionPayload(t *testing.T) {
	payload, err := proto.Marshal(&meshtastic.Position{
		LatitudeI:  proto.Int32(525598720),
		LongitudeI: proto.Int32(136577024),
		Altitude:   proto.Int32(40),
	})
	if err != nil {
		t.Fatalf("marshal position: %v", err)
	}

	input, _ := json.Marshal(map[string]any{
		"portnum":     3,
		"payload_b64": base64.StdEncoding.EncodeToString(payload),
	})
	resp, err := runTool(t, string(input))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Portnum != 3 || resp.Type != "POSITION" {
		t.Fatalf("decoded as %d/%s", resp.Portnum, resp.Type)
	}

	var fields map[string]any
	if err := json.Unmarshal(resp.Payload, &fields); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if fields["latitudeI"] != float64(525598720) {
		t.Fatalf("latitudeI = %v", fields["latitudeI"])
	}
}

func TestDecodeNodeInfoPayloadIsUser(t *testing.T) {
	payload, err := proto.Marshal(&meshtastic.User{
		Id:        "!1234abcd",
		LongName:  "Alpha",
		ShortName: "ALPH",
	})
	if err != nil {
		t.Fatalf("marshal user: %v", err)
	}

	input, _ := json.Marshal(map[string]any{
		"portnum":     4,
		"payload_b64": base64.StdEncoding.EncodeToString(payload),
	})
	resp, err := runTool(t, string(input))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Type != "NODEINFO" {
		t.Fatalf("type = %s", resp.Type)
	}

	var fields map[string]any
	if err := json.Unmarshal(resp.Payload, &fields); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if fields["longName"] != "Alpha" {
		t.Fatalf("longName = %v", fields["longName"])
	}
}

func TestDecodeRejectsMissingFields(t *testing.T) {
	if _, err := runTool(t, `{"payload_b64": ""}`); err == nil || !strings.Contains(err.Error(), "portnum") {
		t.Fatalf("missing portnum: %v", err)
	}
	if _, err := runTool(t, `{"portnum": 3}`); err == nil || !strings.Contains(err.Error(), "payload_b64") {
		t.Fatalf("missing payload: %v", err)
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	if _, err := runTool(t, "not json"); err == nil {
		t.Fatal("invalid JSON accepted")
	}
	if _, err := runTool(t, `{"portnum": 3, "payload_b64": "!!!"}`); err == nil {
		t.Fatal("invalid base64 accepted")
	}
	if _, err := runTool(t, `{"portnum": 999, "payload_b64": ""}`); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("unsupported portnum: %v", err)
	}
}
