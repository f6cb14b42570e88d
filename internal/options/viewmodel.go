package options

import (
	"fmt"
)

// ViewModel mirrors a Configuration and publishes state changes to one
// observer. It is not safe for concurrent use: requests and provider
// completions must all run on the same goroutine.
type ViewModel struct {
	config   Configuration
	state    State
	observer func(State)

	// rollback is what a failed guest change restores. A push received while
	// the change is pending replaces it.
	rollback bool
}

func NewViewModel(config Configuration) *ViewModel {
	vm := &ViewModel{
		config: config,
		state: State{
			AllowGuests:  config.AllowGuests(),
			Title:        config.Title(),
			LinksEnabled: config.LinksEnabled(),
		},
	}
	config.OnAllowGuestsChanged(vm.onExternalGuestsChange)
	return vm
}

func (vm *ViewModel) State() State {
	return vm.state
}

// SetObserver replaces the observer; nil detaches it.
func (vm *ViewModel) SetObserver(fn func(State)) {
	vm.observer = fn
}

func (vm *ViewModel) RequestSetAllowGuests(allow bool) error {
	if vm.state.GuestsChangePending {
		return ErrChangePending
	}
	vm.rollback = vm.state.AllowGuests
	vm.state.AllowGuests = allow
	vm.state.GuestsChangePending = true
	vm.state.Err = nil
	vm.notify()

	vm.config.SetAllowGuests(allow, func(err error) {
		vm.state.GuestsChangePending = false
		if err != nil {
			vm.state.AllowGuests = vm.rollback
			vm.state.Err = fmt.Errorf("%w: %w", ErrSetAllowGuests, err)
		} else {
			vm.state.AllowGuests = allow
		}
		vm.notify()
	})
	return nil
}

func (vm *ViewModel) RequestCreateLink() error {
	if err := vm.beginLinkOp(); err != nil {
		return err
	}
	vm.config.CreateConversationLink(func(url string, err error) {
		if err != nil {
			vm.state.Link = LinkState{Status: LinkAbsent}
			vm.state.Err = fmt.Errorf("%w: %w", ErrCreateLink, err)
		} else {
			vm.state.Link = LinkState{Status: LinkAvailable, URL: url}
		}
		vm.notify()
	})
	return nil
}

func (vm *ViewModel) RequestFetchLink() error {
	if err := vm.beginLinkOp(); err != nil {
		return err
	}
	vm.config.FetchConversationLink(func(url string, found bool, err error) {
		switch {
		case err != nil:
			vm.state.Link = LinkState{Status: LinkError}
			vm.state.Err = fmt.Errorf("%w: %w", ErrFetchLink, err)
		case found:
			vm.state.Link = LinkState{Status: LinkAvailable, URL: url}
		default:
			vm.state.Link = LinkState{Status: LinkAbsent}
		}
		vm.notify()
	})
	return nil
}

func (vm *ViewModel) RequestDeleteLink() error {
	previous := vm.state.Link
	if err := vm.beginLinkOp(); err != nil {
		return err
	}
	vm.config.DeleteLink(func(err error) {
		if err != nil {
			vm.state.Link = previous
			vm.state.Err = fmt.Errorf("%w: %w", ErrDeleteLink, err)
		} else {
			vm.state.Link = LinkState{Status: LinkAbsent}
			vm.state.CopyInProgress = false
		}
		vm.notify()
	})
	return nil
}

func (vm *ViewModel) BeginCopy() error {
	if !vm.state.Link.Available() {
		return ErrNoLink
	}
	vm.state.CopyInProgress = true
	vm.notify()
	return nil
}

func (vm *ViewModel) EndCopy() {
	if !vm.state.CopyInProgress {
		return
	}
	vm.state.CopyInProgress = false
	vm.notify()
}

func (vm *ViewModel) onExternalGuestsChange(allow bool) {
	vm.state.AllowGuests = allow
	if vm.state.GuestsChangePending {
		vm.rollback = allow
	}
	vm.notify()
}

func (vm *ViewModel) beginLinkOp() error {
	if !vm.state.LinksEnabled {
		return ErrLinksDisabled
	}
	if vm.state.Link.Status == LinkLoading {
		return ErrLinkBusy
	}
	vm.state.Link = LinkState{Status: LinkLoading}
	vm.state.Err = nil
	vm.notify()
	return nil
}

func (vm *ViewModel) notify() {
	if vm.observer != nil {
		vm.observer(vm.state)
	}
}
