package pipeline

import "flipfield.gg/internal/cell"

// handleEvent runs the classification path for one feed event. Decode
// failures drop the event and count against the decode-error metric; the
// pipeline keeps running.
func (p *Pipeline) handleEvent(ev Event) {
	p.rate.Mark()

	c, err := p.decode(ev)
	if err != nil {
		p.agg.RecordDecodeError()
		p.log.Printf("drop event key=%s: %v", ev.Key, err)
		return
	}

	switch {
	case c.Unowned():
		if p.admit() {
			p.enqueue(Coord{X: c.X, Y: c.Y})
		}
	case c.Owner == p.identity:
		p.agg.RecordOwn(c.Powerup, c.PowerupValue)
	default:
		// Owned by a third party, nothing to do.
	}
}

func (p *Pipeline) decode(ev Event) (cell.Cell, error) {
	c, err := cell.DecodePacked(ev.Value)
	if err != nil {
		return cell.Cell{}, err
	}
	if ev.X != nil && ev.Y != nil {
		c.X, c.Y = *ev.X, *ev.Y
		return c, nil
	}
	i, ok := p.keys.Lookup(ev.Key)
	if !ok {
		return cell.Cell{}, &cell.DecodeError{Value: ev.Key, Reason: "unknown key and no explicit coordinates"}
	}
	c.X, c.Y = cell.CoordsFromIndex(i)
	return c, nil
}

// admit runs the Bernoulli admission test against the current sample factor.
// Sampling, not blocking, is what bounds candidate volume under load.
func (p *Pipeline) admit() bool {
	p.mu.Lock()
	f := p.sampleFactor
	sampler := p.sampler
	p.mu.Unlock()
	return sampler.Admit(f)
}

// enqueue appends one admitted candidate. A drain cycle is scheduled only on
// the empty-to-non-empty transition, and it runs off the event loop so the
// rest of a burst can pile in before the queue is taken. Candidates admitted
// after a drain has begun ride the next cycle.
func (p *Pipeline) enqueue(at Coord) {
	p.mu.Lock()
	wasEmpty := len(p.pending) == 0
	p.pending = append(p.pending, at)
	p.pendingView[at] = struct{}{}
	p.mu.Unlock()

	if wasEmpty {
		p.scheduleTimer(0, p.drain)
	}
}
