package transport

import "testing"

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Target
	}{
		{name: "empty is mock", raw: "", want: Target{Kind: TargetMock}},
		{name: "blank is mock", raw: "   ", want: Target{Kind: TargetMock}},
		{name: "mock word", raw: "mock", want: Target{Kind: TargetMock}},
		{name: "disable words", raw: "DISABLED", want: Target{Kind: TargetMock}},
		{name: "none", raw: "none", want: Target{Kind: TargetMock}},
		{name: "null", raw: "null", want: Target{Kind: TargetMock}},
		{
			name: "ble address uppercased",
			raw:  "aa:bb:cc:dd:ee:ff",
			want: Target{Kind: TargetBLE, Address: "AA:BB:CC:DD:EE:FF"},
		},
		{
			name: "plain ipv4",
			raw:  "192.168.1.20",
			want: Target{Kind: TargetTCP, Host: "192.168.1.20", Port: 4403},
		},
		{
			name: "ipv4 with port",
			raw:  "192.168.1.20:4404",
			want: Target{Kind: TargetTCP, Host: "192.168.1.20", Port: 4404},
		},
		{
			name: "scheme prefix stripped",
			raw:  "http://127.0.0.1",
			want: Target{Kind: TargetTCP, Host: "127.0.0.1", Port: 4403},
		},
		{
			name: "ipv6 literal",
			raw:  "::1",
			want: Target{Kind: TargetTCP, Host: "::1", Port: 4403},
		},
		{
			name: "bracketed ipv6 with port",
			raw:  "[::1]:4405",
			want: Target{Kind: TargetTCP, Host: "::1", Port: 4405},
		},
		{
			name: "dns name is not tcp",
			raw:  "meshtastic.local",
			want: Target{Kind: TargetSerial, Device: "meshtastic.local"},
		},
		{
			name: "serial path",
			raw:  "/dev/ttyACM0",
			want: Target{Kind: TargetSerial, Device: "/dev/ttyACM0"},
		},
		{
			name: "serial path with colon stays serial",
			raw:  "/dev/serial/by-id:0",
			want: Target{Kind: TargetSerial, Device: "/dev/serial/by-id:0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTarget(tt.raw)
			if got != tt.want {
				t.Fatalf("ParseTarget(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestTargetString(t *testing.T) {
	if got := (Target{Kind: TargetTCP, Host: "127.0.0.1", Port: 4403}).String(); got != "127.0.0.1:4403" {
		t.Fatalf("tcp target string = %q", got)
	}
	if got := (Target{Kind: TargetSerial, Device: "/dev/ttyUSB0"}).String(); got != "/dev/ttyUSB0" {
		t.Fatalf("serial target string = %q", got)
	}
	if got := (Target{Kind: TargetMock}).String(); got != "mock" {
		t.Fatalf("mock target string = %q", got)
	}
}

func TestDiscoverSerialCandidates(t *testing.T) {
	glob := func(pattern string) ([]string, error) {
		switch pattern {
		case "/dev/ttyUSB*":
			return []string{"/dev/ttyUSB1", "/dev/ttyUSB0"}, nil
		case "/dev/ttyACM*":
			return []string{"/dev/ttyACM2"}, nil
		default:
			return nil, nil
		}
	}

	got := discoverSerialCandidates(glob)
	want := []string{"/dev/ttyACM2", "/dev/ttyUSB0", "/dev/ttyUSB1", "/dev/ttyACM0"}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidates[%d] = %q, want %q (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestDiscoverSerialCandidatesKeepsExistingFallback(t *testing.T) {
	glob := func(pattern string) ([]string, error) {
		if pattern == "/dev/ttyACM*" {
			return []string{"/dev/ttyACM0"}, nil
		}

		return nil, nil
	}

	got := discoverSerialCandidates(glob)
	if len(got) != 1 || got[0] != "/dev/ttyACM0" {
		t.Fatalf("candidates = %v, want just /dev/ttyACM0 once", got)
	}
}
