package sensors

import "sync"

// Mock sensors for tests and -demo runs without hardware.

type MockBarometer struct {
	mu  sync.Mutex
	c   Climate
	err error
}

var _ Barometer = new(MockBarometer)

func NewMockBarometer(c Climate) *MockBarometer { return &MockBarometer{c: c} }

func (m *MockBarometer) Set(c Climate) {
	m.mu.Lock()
	m.c = c
	m.mu.Unlock()
}

func (m *MockBarometer) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *MockBarometer) Read() (Climate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return Climate{}, m.err
	}
	return m.c, nil
}

type MockAccelerometer struct {
	mu sync.Mutex
	g  float64
}

var _ Accelerometer = new(MockAccelerometer)

func NewMockAccelerometer(g float64) *MockAccelerometer { return &MockAccelerometer{g: g} }

func (m *MockAccelerometer) Set(g float64) {
	m.mu.Lock()
	m.g = g
	m.mu.Unlock()
}

func (m *MockAccelerometer) ReadG() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.g, nil
}

type MockGPS struct {
	mu sync.Mutex
	f  Fix
}

var _ GPS = new(MockGPS)

func NewMockGPS(f Fix) *MockGPS { return &MockGPS{f: f} }

func (m *MockGPS) Set(f Fix) {
	m.mu.Lock()
	m.f = f
	m.mu.Unlock()
}

func (m *MockGPS) Fix() Fix {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.f
}
