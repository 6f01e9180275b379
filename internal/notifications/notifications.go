// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

package notifications

import (
	"errors"
	"sync"
)

// Notice describes an out-of-band event.
type Notice string

const (
	// arbiter mode switched, either by meta-vote or admin override
	NotifyModeAnarchy   Notice = "NotifyModeAnarchy"
	NotifyModeDemocracy Notice = "NotifyModeDemocracy"

	// a democracy vote window closed and a button was chosen
	NotifyVoteResolved Notice = "NotifyVoteResolved"

	// save manager events
	NotifySaveWritten     Notice = "NotifySaveWritten"
	NotifySaveRestored    Notice = "NotifySaveRestored"
	NotifyCrashedOnBoot   Notice = "NotifyCrashedOnBoot"
	NotifyCleanShutdown   Notice = "NotifyCleanShutdown"

	// game memory probe events
	NotifyGameDetected   Notice = "NotifyGameDetected"
	NotifyGameUnrecognised Notice = "NotifyGameUnrecognised"

	// fabric events
	NotifyClientJoined Notice = "NotifyClientJoined"
	NotifyClientParted Notice = "NotifyClientParted"
)

// Notify is implemented by anything that wants to react to a Notice.
type Notify interface {
	Notify(notice Notice) error
}

// Broadcaster fans a Notice out to every subscriber, collecting (not
// stopping on) any individual subscriber's error. Safe for concurrent use.
type Broadcaster struct {
	mu   sync.Mutex
	subs []Notify
}

// Subscribe registers n to receive future notices.
func (b *Broadcaster) Subscribe(n Notify) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, n)
}

// Notify delivers notice to every subscriber. Subscriber errors are joined
// and returned together; delivery to other subscribers is not interrupted
// by one subscriber's failure. A *Broadcaster is itself a Notify, so one
// broadcaster can subscribe to another.
func (b *Broadcaster) Notify(notice Notice) error {
	b.mu.Lock()
	subs := make([]Notify, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	var errs []error
	for _, s := range subs {
		if err := s.Notify(notice); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
