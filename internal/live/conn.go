package live

// Conn — транспортная сторона соединения, как её видит ядро.
// Реализация живёт в transport/ws; в тестах — моки.
type Conn interface {
	ID() string
	Send(evt Event) error
	Close() error
}
