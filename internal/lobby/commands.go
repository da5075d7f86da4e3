package lobby

// command is processed exclusively inside the lobby's run loop: one
// interface method mutating owner-only state, dispatched off a single
// channel.
type command interface {
	process(l *Lobby)
}

type createCmd struct {
	session SessionID
	cfg     CreateConfig
	resp    chan createResp
}

type createResp struct {
	passcode Passcode
	notify   <-chan HostNotify
	err      error
}

func (c *createCmd) process(l *Lobby) {
	if l.isBusy(c.session) {
		c.resp <- createResp{err: ErrAlreadyHostingOrPlaying}
		return
	}

	if c.cfg.Visibility == publicVisibility && l.policy.BanPublicMatch {
		c.resp <- createResp{err: ErrVisibilityBanned}
		return
	}
	if c.cfg.Visibility == privateVisibility && l.policy.BanPrivateMatch {
		c.resp <- createResp{err: ErrVisibilityBanned}
		return
	}
	if !l.variantAllowed(c.cfg.Variant) {
		c.resp <- createResp{err: ErrVariantNotAllowed}
		return
	}
	if c.cfg.Visibility == publicVisibility && len(l.openPublic) >= matchListSlots {
		c.resp <- createResp{err: ErrPublicFull}
		return
	}

	passcode := l.allocPasscode()
	notify := make(chan HostNotify, 1)
	om := &openMatch{
		passcode:    passcode,
		hostSession: c.session,
		color:       c.cfg.Color,
		clock:       c.cfg.Clock,
		variant:     c.cfg.Variant,
		visibility:  c.cfg.Visibility,
		notify:      notify,
	}

	if c.cfg.Visibility == publicVisibility {
		l.openPublic = append(l.openPublic, om)
	} else {
		l.openPrivate[passcode] = om
	}
	l.hostingBySession[c.session] = passcode

	c.resp <- createResp{passcode: passcode, notify: notify}
}

type joinCmd struct {
	session  SessionID
	passcode Passcode
	resp     chan joinResp
}

type joinResp struct {
	outcome JoinOutcome
	err     error
}

func (c *joinCmd) process(l *Lobby) {
	om := l.takeOpenByPasscode(c.passcode)
	if om == nil || om.hostSession == c.session {
		if om != nil {
			l.restoreOpen(om)
		}
		c.resp <- joinResp{err: ErrMatchNotFound}
		return
	}

	if l.isBusy(c.session) {
		l.restoreOpen(om)
		c.resp <- joinResp{err: ErrAlreadyHostingOrPlaying}
		return
	}

	if l.policy.MaxRunningMatches > 0 && len(l.running) >= l.policy.MaxRunningMatches {
		l.restoreOpen(om)
		c.resp <- joinResp{err: ErrCapacity}
		return
	}

	delete(l.hostingBySession, om.hostSession)

	hostColor, joinerColor := resolveColors(om.color)

	matchID := l.nextMatchID
	l.nextMatchID++

	rm := &runningMatch{
		matchID:       matchID,
		nextMessageID: 1,
		variant:       om.variant,
		clock:         om.clock,
		visibility:    om.visibility,
		startedAt:     l.now(),
	}
	if hostColor == whitePlay {
		rm.white, rm.black = om.hostSession, c.session
	} else {
		rm.white, rm.black = c.session, om.hostSession
	}

	l.running[matchID] = rm
	l.participantBySession[om.hostSession] = matchID
	l.participantBySession[c.session] = matchID

	hostRelay, joinerRelay := l.makeRelayPair()

	hostNotify := HostNotify{
		MatchID:   matchID,
		Color:     hostColor,
		Clock:     rm.clock,
		Variant:   rm.variant,
		MessageID: rm.nextMessageID,
		Relay:     hostRelay,
	}
	om.notify <- hostNotify // buffered 1, delivered exactly once: never blocks

	c.resp <- joinResp{outcome: JoinOutcome{
		MatchID:          matchID,
		Color:            joinerColor,
		Clock:            rm.clock,
		Variant:          rm.variant,
		MessageID:        rm.nextMessageID,
		Relay:            joinerRelay,
		ResultColor:      om.color,
		ResultClock:      om.clock,
		ResultVariant:    om.variant,
		ResultVisibility: om.visibility,
	}}
}

type cancelCmd struct {
	session SessionID
	resp    chan cancelResp
}

type cancelResp struct {
	removed bool
}

func (c *cancelCmd) process(l *Lobby) {
	passcode, ok := l.hostingBySession[c.session]
	if !ok {
		c.resp <- cancelResp{removed: false}
		return
	}

	l.takeOpenByPasscode(passcode)
	delete(l.hostingBySession, c.session)

	c.resp <- cancelResp{removed: true}
}

type forfeitCmd struct {
	session SessionID
	matchID uint64
	resp    chan forfeitResp
}

type forfeitResp struct {
	outcome ForfeitOutcome
	err     error
}

func (c *forfeitCmd) process(l *Lobby) {
	rm, ok := l.running[c.matchID]
	if !ok || (rm.white != c.session && rm.black != c.session) {
		c.resp <- forfeitResp{err: ErrNotRunning}
		return
	}

	delete(l.running, c.matchID)
	delete(l.participantBySession, rm.white)
	delete(l.participantBySession, rm.black)

	elapsed := l.now().Sub(rm.startedAt)
	l.pushHistory(HistoryEntry{
		Status:        historyCompleted,
		Clock:         rm.clock,
		Variant:       rm.variant,
		Visibility:    rm.visibility,
		SecondsPassed: int64(elapsed.Seconds()),
	})

	c.resp <- forfeitResp{outcome: ForfeitOutcome{WasParticipant: true, SecondsElapsed: int64(elapsed.Seconds())}}
}

type stampActionCmd struct {
	session SessionID
	matchID uint64
	resp    chan stampActionResp
}

type stampActionResp struct {
	messageID uint64
	err       error
}

func (c *stampActionCmd) process(l *Lobby) {
	rm, ok := l.running[c.matchID]
	if !ok || (rm.white != c.session && rm.black != c.session) {
		c.resp <- stampActionResp{err: ErrNotRunning}
		return
	}

	// rm.nextMessageID starts at the value already handed to MatchStart
	// (see joinCmd.process); every subsequent stamp increments first, so
	// the first relayed action gets nextMessageID+1, matching the
	// pairing-time announcement being id 1 of the sequence.
	rm.nextMessageID++
	c.resp <- stampActionResp{messageID: rm.nextMessageID}
}

type snapshotCmd struct {
	session SessionID
	resp    chan snapshotResp
}

type snapshotResp struct {
	snapshot ListSnapshot
}

func (c *snapshotCmd) process(l *Lobby) {
	var host HostView
	if passcode, ok := l.hostingBySession[c.session]; ok {
		if om := l.peekOpenByPasscode(passcode); om != nil {
			host = HostView{
				IsHost:     true,
				Color:      om.color,
				Clock:      om.clock,
				Variant:    om.variant,
				Visibility: om.visibility,
				Passcode:   om.passcode,
			}
		}
	}

	public := make([]PublicMatchView, 0, min(len(l.openPublic), matchListSlots))
	for i, om := range l.openPublic {
		if i >= matchListSlots {
			break
		}
		if om.hostSession == c.session {
			continue
		}
		public = append(public, PublicMatchView{Color: om.color, Clock: om.clock, Variant: om.variant, Passcode: om.passcode})
	}

	history := make([]HistoryEntry, len(l.history))
	copy(history, l.history)

	c.resp <- snapshotResp{snapshot: ListSnapshot{Host: host, Public: public, History: history}}
}
