package live

import (
	"log/slog"
)

// Dispatcher доставляет события участникам комнаты или одному соединению.
// Состав комнаты резолвится из Registry в момент доставки, не заранее.
// Отправка best-effort: мёртвый сокет одного участника не прерывает
// доставку остальным.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// ToRoom рассылает событие всем участникам комнаты; excluding ("" — никого)
// позволяет не отправлять инициатору.
func (d *Dispatcher) ToRoom(sessionID, excluding string, evt Event) {
	for _, c := range d.registry.Members(sessionID) {
		if c.ID() == excluding {
			continue
		}
		d.send(c, evt)
	}
}

func (d *Dispatcher) ToConn(connID string, evt Event) {
	c, ok := d.registry.Conn(connID)
	if !ok {
		return
	}
	d.send(c, evt)
}

func (d *Dispatcher) send(c Conn, evt Event) {
	if err := c.Send(evt); err != nil {
		sendFailures.Inc()
		slog.Debug("dispatch send failed", "conn", c.ID(), "event", evt.Name, "err", err)
		return
	}
	eventsOut.WithLabelValues(evt.Name).Inc()
}
