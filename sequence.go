package asyncftp

// sequence is a command made of several lines, each one written when the
// previous line receives a specific intermediate reply (RNFR 350 → RNTO,
// USER 331 → PASS). The whole sequence holds the head of the queue, so no
// other command can slip in between its lines.
type sequence struct {
	steps []string
	// proceed[i] is the reply code of steps[i] that triggers steps[i+1]
	proceed []int
	// earlyOK lets a 2xx reply to an intermediate step end the sequence
	// successfully (USER answered with 230)
	earlyOK bool

	i       int
	pending *Pending
}

func newSequence(steps []string, proceed []int, earlyOK bool) *sequence {
	return &sequence{
		steps:   steps,
		proceed: proceed,
		earlyOK: earlyOK,
		pending: newPending(maskCommand(steps[0])),
	}
}

// enqueue queues the sequence on s.
func (q *sequence) enqueue(s *Session) *Pending {
	s.enqueue(&command{text: q.steps[0], pending: q.pending, d: q})
	return q.pending
}

func (q *sequence) dispatch(s *Session, r *Reply) bool {
	if r.Category() == CategoryInfo {
		return false
	}

	current := maskCommand(q.steps[q.i])
	last := q.i == len(q.steps)-1
	if !last && r.Code == q.proceed[q.i] {
		q.i++
		s.writeLineLocked(q.steps[q.i])
		return false
	}

	switch {
	case r.Category() == CategoryErr:
		q.pending.complete(r, remoteError(current, r))
	case r.Category() == CategoryOK && (last || q.earlyOK):
		q.pending.complete(r, nil)
	default:
		q.pending.complete(r, &ProtocolError{Command: current, Response: r.Message, Code: r.Code})
	}
	return true
}

func (q *sequence) fail(err error) {
	q.pending.complete(nil, err)
}
