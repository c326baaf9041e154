package atxt

// Simulator models an XT or AT keyboard behind the level shifter,
// with a virtual microsecond clock. It implements Port, so an Engine
// bound to it runs its real interrupt handlers against scripted bus
// activity. Time only advances inside Step, Advance and the engine's
// busy-waits, which keeps every test deterministic.
type Simulator struct {
	eng *Engine

	proto      Protocol
	legacy     bool
	idleBounce bool
	runts      bool
	mute       bool
	noAck      bool

	now  int64
	edge Edge

	// Keyboard-side pulls and engine-side drives. The bus line is low
	// when either end pulls it; the raw pin inverts the bus.
	kbClk, kbData   bool
	drvClk, drvData bool

	frameAt, cmdAt int64

	queue []simEvent
	txGen uint32

	sendq   []byte
	sending bool

	clkHold int64

	rxActive bool
	rxShift  uint16

	expectLED bool
	lastSent  byte

	// Written records every byte the engine clocked out to the
	// keyboard, in order.
	Written []byte
	// LEDs is the last lock-light bitmask received after 0xED.
	LEDs byte
	// OnCommand, when set, replaces the built-in command responder.
	OnCommand func(b byte)
}

type simEvent struct {
	at  int64
	gen uint32
	fn  func()
}

// genAlways marks events that survive a transmit abort.
const genAlways = ^uint32(0)

const (
	bitPeriod  = 80
	pulseLow   = 40
	sampleOff  = 75
	txLeadIn   = 100
	batPowerOn = 150_000
	batRestart = 20_000
	// xtResetHold is how long CLK must have been held low for an XT
	// board to treat the release as a power-on reset.
	xtResetHold = 10_000
)

// SimConfig describes the simulated keyboard.
type SimConfig struct {
	Protocol Protocol
	// Legacy boards stay silent until the converter forces a reset
	// pulse, and their engine runs with the glitch filter on.
	Legacy bool
	// IdleBounce boards emit one extra clock pulse right after each
	// frame.
	IdleBounce bool
	// Runts boards precede every real bit edge with a runt pulse.
	Runts bool
	// Mute boards never transmit anything, not even after a reset.
	Mute bool
	// NoAck boards fail to pull DATA for the final clock of a write.
	NoAck bool
}

func NewSimulator(cfg SimConfig) *Simulator {
	s := &Simulator{
		proto:      cfg.Protocol,
		legacy:     cfg.Legacy,
		idleBounce: cfg.IdleBounce,
		runts:      cfg.Runts,
		mute:       cfg.Mute,
		noAck:      cfg.NoAck,
	}
	s.eng = New(s)
	if !cfg.Legacy && !cfg.Mute {
		s.at(batPowerOn, genAlways, func() { s.Transmit(RespBATPass) })
	}
	return s
}

func (s *Simulator) Engine() *Engine {
	return s.eng
}

// Transmit queues bytes for the keyboard to clock out as frames.
func (s *Simulator) Transmit(bytes ...byte) {
	if s.mute {
		return
	}
	s.sendq = append(s.sendq, bytes...)
	s.startTx()
}

// Port implementation.

func (s *Simulator) busClkLow() bool  { return s.kbClk || s.drvClk }
func (s *Simulator) busDataLow() bool { return s.kbData || s.drvData }

func (s *Simulator) ReadClock() bool { return s.busClkLow() }
func (s *Simulator) ReadData() bool  { return s.busDataLow() }

func (s *Simulator) DriveData(assert bool) { s.drvData = assert }

func (s *Simulator) DriveClock(assert bool) {
	if assert == s.drvClk {
		return
	}
	before := s.busClkLow()
	s.drvClk = assert
	if assert {
		s.clkHold = s.now
		s.abortTx()
	}
	s.clockMoved(before)
	if !assert {
		switch {
		case s.drvData && s.proto == ProtocolAT:
			s.beginRx()
		case s.proto == ProtocolXT && s.now-s.clkHold >= xtResetHold:
			s.reset()
		default:
			s.startTx()
		}
	}
}

func (s *Simulator) SetEdge(e Edge) { s.edge = e }

func (s *Simulator) StartFrameTimer(micros int64)   { s.frameAt = s.now + micros }
func (s *Simulator) CancelFrameTimer()              { s.frameAt = 0 }
func (s *Simulator) StartCommandTimer(micros int64) { s.cmdAt = s.now + micros }

func (s *Simulator) Micros() int64 { return s.now }

// Sleep advances virtual time, delivering due keyboard events so a
// busy-wait observes line changes, as on hardware.
func (s *Simulator) Sleep(micros int64) {
	deadline := s.now + micros
	for len(s.queue) > 0 && s.queue[0].at <= deadline {
		s.pop()
	}
	if s.now < deadline {
		s.now = deadline
	}
}

// Critical runs fn directly: the simulation is single-threaded and
// handlers only run inside Step.
func (s *Simulator) Critical(fn func()) { fn() }

// Wait delivers the next scheduled interrupt or keyboard action.
func (s *Simulator) Wait() { s.Step() }

const simNever = int64(1) << 62

func (s *Simulator) nextTime() int64 {
	t := simNever
	if len(s.queue) > 0 {
		t = s.queue[0].at
	}
	if s.frameAt != 0 && s.frameAt < t {
		t = s.frameAt
	}
	if s.cmdAt != 0 && s.cmdAt < t {
		t = s.cmdAt
	}
	return t
}

// Step fires the earliest pending event. Keyboard events win ties so
// line activity is seen before a timeout stamped at the same instant.
func (s *Simulator) Step() {
	t := s.nextTime()
	if t == simNever {
		panic("atxt: simulator has nothing scheduled")
	}
	switch {
	case len(s.queue) > 0 && s.queue[0].at <= t:
		s.pop()
	case s.frameAt != 0 && s.frameAt == t:
		s.frameAt = 0
		if t > s.now {
			s.now = t
		}
		s.eng.FrameTimeout()
	default:
		s.cmdAt = 0
		if t > s.now {
			s.now = t
		}
		s.eng.CommandTimeout()
	}
}

// Advance runs the simulation for a fixed span of virtual time.
func (s *Simulator) Advance(micros int64) {
	deadline := s.now + micros
	for {
		t := s.nextTime()
		if t == simNever || t > deadline {
			break
		}
		s.Step()
	}
	if s.now < deadline {
		s.now = deadline
	}
}

func (s *Simulator) pop() {
	ev := s.queue[0]
	s.queue = s.queue[1:]
	if ev.at > s.now {
		s.now = ev.at
	}
	if ev.gen == genAlways || ev.gen == s.txGen {
		ev.fn()
	}
}

func (s *Simulator) at(t int64, gen uint32, fn func()) {
	i := len(s.queue)
	for i > 0 && s.queue[i-1].at > t {
		i--
	}
	s.queue = append(s.queue, simEvent{})
	copy(s.queue[i+1:], s.queue[i:])
	s.queue[i] = simEvent{at: t, gen: gen, fn: fn}
}

func (s *Simulator) setKbClk(pull bool) {
	before := s.busClkLow()
	s.kbClk = pull
	s.clockMoved(before)
}

func (s *Simulator) setKbData(pull bool) { s.kbData = pull }

func (s *Simulator) clockMoved(before bool) {
	after := s.busClkLow()
	if before == after {
		return
	}
	// The raw pin follows the inverted bus: a bus line going low
	// reads as a rising pin edge.
	rising := after
	if (rising && s.edge == EdgeRising) || (!rising && s.edge == EdgeFalling) {
		s.eng.ClockEdge()
	}
}

// Keyboard transmit.

func frameBits(p Protocol, b byte) []byte {
	bits := make([]byte, 0, numCyclesAT)
	if p == ProtocolXT {
		bits = append(bits, 1)
	} else {
		bits = append(bits, 0)
	}
	for i := 0; i < 8; i++ {
		bits = append(bits, b>>i&1)
	}
	if p == ProtocolAT {
		parity := byte(1)
		if oddParity9(uint16(b)) {
			parity = 0
		}
		bits = append(bits, parity, 1)
	}
	return bits
}

func (s *Simulator) startTx() {
	if s.sending || s.rxActive || s.drvClk || len(s.sendq) == 0 {
		return
	}
	s.transmitBits(frameBits(s.proto, s.sendq[0]), true)
}

// TransmitRaw clocks an arbitrary bit sequence, for corrupt-frame
// tests.
func (s *Simulator) TransmitRaw(bits []byte) {
	s.transmitBits(bits, false)
}

func (s *Simulator) transmitBits(bits []byte, fromQueue bool) {
	s.sending = true
	gen := s.txGen
	t := s.now + txLeadIn
	for i, bit := range bits {
		bit := bit
		ti := t + int64(i)*bitPeriod
		s.at(ti, gen, func() {
			s.setKbData(bit == 0)
			s.setKbClk(true)
		})
		if s.runts {
			s.at(ti+15, gen, func() { s.setKbClk(false) })
			s.at(ti+25, gen, func() { s.setKbClk(true) })
		}
		last := i == len(bits)-1
		s.at(ti+pulseLow, gen, func() {
			if last && fromQueue {
				// The final clock completes the byte: a host inhibit
				// from here on does not make the keyboard send it again.
				s.lastSent = s.sendq[0]
				s.sendq = s.sendq[1:]
			}
			s.setKbClk(false)
		})
	}
	end := t + int64(len(bits))*bitPeriod
	s.at(end, gen, func() {
		s.setKbData(false)
		s.sending = false
		if s.idleBounce {
			s.at(s.now+10, gen, func() { s.setKbClk(true) })
			s.at(s.now+20, gen, func() { s.setKbClk(false) })
		}
		s.at(s.now+txLeadIn, gen, func() { s.startTx() })
	})
}

// abortTx models the keyboard yielding to a host inhibit mid-frame;
// the interrupted byte stays queued and is re-sent in full.
func (s *Simulator) abortTx() {
	if !s.sending {
		return
	}
	s.txGen++
	s.sending = false
	s.kbClk = false
	s.kbData = false
}

// reset is an XT power-on reset forced by a long CLK hold.
func (s *Simulator) reset() {
	s.txGen++
	s.sending = false
	s.kbClk = false
	s.kbData = false
	s.sendq = nil
	s.at(s.now+batRestart, genAlways, func() { s.Transmit(RespBATPass) })
}

// Keyboard receive (AT writes from the engine).

func (s *Simulator) beginRx() {
	s.rxActive = true
	s.rxShift = 0
	t := s.now + txLeadIn
	for j := 0; j < numCyclesAT; j++ {
		j := j
		tj := t + int64(j)*bitPeriod
		s.at(tj, genAlways, func() {
			if j == numCyclesAT-1 && !s.noAck {
				// ACK: pull DATA for the final clock.
				s.setKbData(true)
			}
			s.setKbClk(true)
		})
		// The engine drives bit j on this falling edge.
		s.at(tj+pulseLow, genAlways, func() { s.setKbClk(false) })
		s.at(tj+sampleOff, genAlways, func() {
			if !s.busDataLow() {
				s.rxShift |= 1 << j
			}
		})
	}
	s.at(t+int64(numCyclesAT)*bitPeriod, genAlways, func() {
		s.setKbData(false)
		s.rxActive = false
		b := byte(s.rxShift)
		s.Written = append(s.Written, b)
		s.respond(b)
		s.startTx()
	})
}

func (s *Simulator) respond(b byte) {
	if s.OnCommand != nil {
		s.OnCommand(b)
		return
	}
	if s.expectLED {
		s.expectLED = false
		s.LEDs = b
		s.reply(RespAck)
		return
	}
	switch Command(b) {
	case CmdReset:
		s.reply(RespAck, RespBATPass)
	case CmdResend:
		s.reply(s.lastSent)
	case CmdSetLockLights:
		s.expectLED = true
		s.reply(RespAck)
	case CmdEcho:
		s.reply(byte(CmdEcho))
	default:
		s.reply(RespAck)
	}
}

// reply queues a command response ahead of any interrupted byte
// waiting to be re-sent.
func (s *Simulator) reply(bytes ...byte) {
	if s.mute {
		return
	}
	s.sendq = append(append([]byte{}, bytes...), s.sendq...)
	s.startTx()
}
