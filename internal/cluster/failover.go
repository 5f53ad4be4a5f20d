package cluster

import (
	"sync"
	"time"

	"ripcache/internal/nodeid"
)

// FailoverPhase is the replica-side election state machine:
// Idle -> RankWait -> AwaitingVotes -> Promoted | Aborted. Re-entry at
// a higher epoch is allowed after an abort.
type FailoverPhase int

const (
	PhaseIdle FailoverPhase = iota
	PhaseRankWait
	PhaseAwaitingVotes
	PhasePromoted
	PhaseAborted
)

// Rank computes a candidate's promotion rank: the number of sibling
// replicas with a strictly greater replication offset. Higher offset
// promotes earlier; rank 0 is immediate.
func Rank(selfOffset uint64, siblingOffsets []uint64) int {
	rank := 0
	for _, off := range siblingOffsets {
		if off > selfOffset {
			rank++
		}
	}
	return rank
}

// RankDelay returns how long a candidate at the given rank must wait
// before requesting votes.
func RankDelay(rank int, delay time.Duration) time.Duration {
	return time.Duration(rank) * delay
}

// Round tracks one candidate-side election attempt.
type Round struct {
	mu              sync.Mutex
	phase           FailoverPhase
	epoch           uint64
	requiredMasters int
	acks            map[nodeid.ID]struct{}
	deadline        time.Time
}

// NewRound creates an idle round; call BeginElection to start voting.
func NewRound() *Round {
	return &Round{phase: PhaseIdle, acks: make(map[nodeid.ID]struct{})}
}

func (r *Round) Phase() FailoverPhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// EnterRankWait moves the round into RankWait while the candidate
// observes sibling offsets.
func (r *Round) EnterRankWait() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = PhaseRankWait
}

// BeginElection starts requesting votes at epoch, requiring a strict
// majority of requiredMasters acks within timeout.
func (r *Round) BeginElection(epoch uint64, requiredMasters int, timeout time.Duration, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = PhaseAwaitingVotes
	r.epoch = epoch
	r.requiredMasters = requiredMasters
	r.acks = make(map[nodeid.ID]struct{})
	r.deadline = now.Add(timeout)
}

// quorumSize is a strict majority of n masters.
func quorumSize(n int) int { return n/2 + 1 }

// RecordAck registers an ack from voter bearing ackEpoch. Acks for
// any epoch other than the in-flight request's are stale and ignored.
// Returns true the moment quorum is reached.
func (r *Round) RecordAck(voter nodeid.ID, ackEpoch uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseAwaitingVotes || ackEpoch != r.epoch {
		return false
	}
	r.acks[voter] = struct{}{}
	if len(r.acks) >= quorumSize(r.requiredMasters) {
		r.phase = PhasePromoted
		return true
	}
	return false
}

// CheckTimeout aborts the round if its deadline has passed without
// quorum. Returns true if this call caused an abort.
func (r *Round) CheckTimeout(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhaseAwaitingVotes {
		return false
	}
	if now.Before(r.deadline) {
		return false
	}
	r.phase = PhaseAborted
	return true
}

// VoteEntry records the epoch and time of a master's last vote for a
// given failed master: at most one vote per epoch, and no re-vote
// within 2*node_timeout.
type VoteEntry struct {
	Epoch   uint64
	VotedAt time.Time
}

// VoteBook is the acceptor-side state a master keeps: one VoteEntry
// per master it might be asked to vote a replacement for.
type VoteBook struct {
	mu   sync.Mutex
	last map[nodeid.ID]VoteEntry
}

func NewVoteBook() *VoteBook {
	return &VoteBook{last: make(map[nodeid.ID]VoteEntry)}
}

// TryVote applies the acceptor-side vote rule:
//
//	(a) reqEpoch >= vCurrentEpoch and reqEpoch > this master's last
//	    vote epoch for failedMaster
//	(b) at least 2*nodeTimeout elapsed since the last vote for failedMaster
//	(c) reqOffset >= the voter's own record of failedMaster's offset
//
// On acceptance, the vote is recorded and true is returned.
func (v *VoteBook) TryVote(
	failedMaster nodeid.ID,
	reqEpoch, vCurrentEpoch uint64,
	reqOffset, knownMasterOffset uint64,
	now time.Time,
	nodeTimeout time.Duration,
) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if reqEpoch < vCurrentEpoch {
		return false
	}
	if last, ok := v.last[failedMaster]; ok {
		if reqEpoch <= last.Epoch {
			return false
		}
		if now.Sub(last.VotedAt) < 2*nodeTimeout {
			return false
		}
	}
	if reqOffset < knownMasterOffset {
		return false
	}
	v.last[failedMaster] = VoteEntry{Epoch: reqEpoch, VotedAt: now}
	return true
}
