package radio

import "github.com/potatomesh/meshingest/internal/domain"

// MockInterface is the stub radio selected by the "mock"/"none" targets.
// It reports an empty node map and stays "connected" forever, which lets
// the rest of the daemon run without hardware.
type MockInterface struct{}

func NewMock() *MockInterface {
	return &MockInterface{}
}

func (m *MockInterface) Nodes() ([]domain.Node, error) {
	return nil, nil
}

func (m *MockInterface) Connected() bool {
	return true
}

func (m *MockInterface) LocalNodeID() string {
	return ""
}

func (m *MockInterface) Close() error {
	return nil
}
