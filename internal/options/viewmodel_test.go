package options_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Avicted/convopts/internal/options"
	"github.com/Avicted/convopts/internal/options/optionstest"
)

var errBackend = errors.New("backend unavailable")

func recordStates(vm *options.ViewModel) *[]options.State {
	var states []options.State
	vm.SetObserver(func(s options.State) { states = append(states, s) })
	return &states
}

func TestNewViewModelMirrorsConfiguration(t *testing.T) {
	config := optionstest.New(true).WithTitle("Italy Trip")
	vm := options.NewViewModel(config)

	state := vm.State()
	assert.True(t, state.AllowGuests)
	assert.Equal(t, "Italy Trip", state.Title)
	assert.True(t, state.LinksEnabled)
	assert.Equal(t, options.LinkUnknown, state.Link.Status)
	assert.False(t, state.CopyInProgress)
	require.NotNil(t, config.GuestsChangedHandler, "view model should register for pushes")
}

func TestRequestSetAllowGuestsOptimisticThenConfirmed(t *testing.T) {
	config := optionstest.New(false)
	vm := options.NewViewModel(config)
	states := recordStates(vm)

	require.NoError(t, vm.RequestSetAllowGuests(true))
	assert.True(t, vm.State().AllowGuests)
	assert.True(t, vm.State().GuestsChangePending)
	assert.True(t, vm.State().Loading())
	require.NotNil(t, config.PendingSet)

	config.PendingSet(nil)
	assert.True(t, vm.State().AllowGuests)
	assert.False(t, vm.State().GuestsChangePending)
	assert.NoError(t, vm.State().Err)
	assert.Equal(t, []bool{true}, config.SetCalls)
	assert.Len(t, *states, 2)
}

func TestRequestSetAllowGuestsRollsBackOnFailure(t *testing.T) {
	for _, initial := range []bool{true, false} {
		config := optionstest.New(initial)
		config.SetAllowGuestsHandler = func(_ bool, done func(error)) { done(errBackend) }
		vm := options.NewViewModel(config)

		for i := 0; i < 3; i++ {
			require.NoError(t, vm.RequestSetAllowGuests(!initial))
			assert.Equal(t, initial, vm.State().AllowGuests)
			assert.False(t, vm.State().GuestsChangePending)
			assert.ErrorIs(t, vm.State().Err, options.ErrSetAllowGuests)
			assert.ErrorIs(t, vm.State().Err, errBackend)
		}
	}
}

func TestRequestSetAllowGuestsRejectedWhilePending(t *testing.T) {
	config := optionstest.New(false)
	vm := options.NewViewModel(config)
	require.NoError(t, vm.RequestSetAllowGuests(true))

	states := recordStates(vm)
	err := vm.RequestSetAllowGuests(false)
	assert.ErrorIs(t, err, options.ErrChangePending)
	assert.True(t, vm.State().AllowGuests)
	assert.Equal(t, []bool{true}, config.SetCalls)
	assert.Empty(t, *states, "rejected request must not notify")
}

func TestExternalChangeWinsOverRollback(t *testing.T) {
	config := optionstest.New(false)
	vm := options.NewViewModel(config)

	require.NoError(t, vm.RequestSetAllowGuests(true))
	config.PushGuests(true)
	assert.True(t, vm.State().AllowGuests)

	config.PendingSet(errBackend)
	assert.True(t, vm.State().AllowGuests, "failure after a push must restore the pushed value")
	assert.False(t, vm.State().GuestsChangePending)
}

func TestExternalChangeThenSuccessKeepsValue(t *testing.T) {
	config := optionstest.New(false)
	vm := options.NewViewModel(config)

	require.NoError(t, vm.RequestSetAllowGuests(true))
	config.PushGuests(true)
	config.PendingSet(nil)
	assert.True(t, vm.State().AllowGuests)
}

func TestCompletionOrderDeterminesFinalValue(t *testing.T) {
	config := optionstest.New(false)
	vm := options.NewViewModel(config)

	require.NoError(t, vm.RequestSetAllowGuests(true))
	config.PushGuests(false)
	assert.False(t, vm.State().AllowGuests)

	config.PendingSet(nil)
	assert.True(t, vm.State().AllowGuests, "success completing last applies the requested value")
}

func TestExternalChangeWithoutPendingRequest(t *testing.T) {
	config := optionstest.New(false)
	vm := options.NewViewModel(config)
	states := recordStates(vm)

	config.PushGuests(true)
	require.Len(t, *states, 1)
	assert.True(t, (*states)[0].AllowGuests)
	assert.Equal(t, options.LinkUnknown, vm.State().Link.Status, "guest changes never touch the link")
}

func TestFetchLinkTransitions(t *testing.T) {
	tests := []struct {
		name   string
		result *optionstest.FetchResult
		want   options.LinkState
		err    error
	}{
		{
			name:   "existing link",
			result: &optionstest.FetchResult{URL: "https://example/abc", Found: true},
			want:   options.LinkState{Status: options.LinkAvailable, URL: "https://example/abc"},
		},
		{
			name:   "no link yet",
			result: &optionstest.FetchResult{},
			want:   options.LinkState{Status: options.LinkAbsent},
		},
		{
			name:   "failure",
			result: &optionstest.FetchResult{Err: errBackend},
			want:   options.LinkState{Status: options.LinkError},
			err:    options.ErrFetchLink,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := optionstest.New(true)
			config.LinkResult = tt.result
			vm := options.NewViewModel(config)
			states := recordStates(vm)

			require.NoError(t, vm.RequestFetchLink())
			require.Len(t, *states, 2)
			assert.Equal(t, options.LinkLoading, (*states)[0].Link.Status)
			assert.Equal(t, tt.want, vm.State().Link)
			if tt.err != nil {
				assert.ErrorIs(t, vm.State().Err, tt.err)
			} else {
				assert.NoError(t, vm.State().Err)
			}
		})
	}
}

func TestFetchLinkStaysLoadingUntilCompletion(t *testing.T) {
	config := optionstest.New(true)
	vm := options.NewViewModel(config)

	require.NoError(t, vm.RequestFetchLink())
	assert.Equal(t, options.LinkLoading, vm.State().Link.Status)
	assert.ErrorIs(t, vm.RequestFetchLink(), options.ErrLinkBusy)
	assert.ErrorIs(t, vm.RequestCreateLink(), options.ErrLinkBusy)
	assert.Equal(t, 1, config.FetchCalls)

	config.PendingFetch("", false, nil)
	assert.Equal(t, options.LinkAbsent, vm.State().Link.Status)
}

func TestFetchThenCreateScenario(t *testing.T) {
	config := optionstest.New(true).WithoutLink()
	config.CreateResult = &optionstest.CreateResult{URL: "https://example/abc"}
	vm := options.NewViewModel(config)

	require.NoError(t, vm.RequestFetchLink())
	assert.Equal(t, options.LinkAbsent, vm.State().Link.Status)

	require.NoError(t, vm.RequestCreateLink())
	assert.Equal(t, options.LinkState{Status: options.LinkAvailable, URL: "https://example/abc"}, vm.State().Link)
}

func TestCreateLinkFailureLeavesLinkAbsent(t *testing.T) {
	config := optionstest.New(true)
	config.CreateResult = &optionstest.CreateResult{Err: errBackend}
	vm := options.NewViewModel(config)

	require.NoError(t, vm.RequestCreateLink())
	assert.Equal(t, options.LinkAbsent, vm.State().Link.Status)
	assert.ErrorIs(t, vm.State().Err, options.ErrCreateLink)
}

func TestDeleteLink(t *testing.T) {
	config := optionstest.New(true).WithLink("https://example/abc")
	vm := options.NewViewModel(config)
	require.NoError(t, vm.RequestFetchLink())
	require.NoError(t, vm.BeginCopy())

	require.NoError(t, vm.RequestDeleteLink())
	assert.Equal(t, options.LinkState{Status: options.LinkAbsent}, vm.State().Link)
	assert.False(t, vm.State().CopyInProgress)
	assert.Equal(t, 1, config.DeleteCalls)
}

func TestDeleteLinkFromUnknownState(t *testing.T) {
	config := optionstest.New(true)
	vm := options.NewViewModel(config)

	require.NoError(t, vm.RequestDeleteLink())
	assert.Equal(t, options.LinkAbsent, vm.State().Link.Status)
}

func TestDeleteLinkFailureRestoresLink(t *testing.T) {
	config := optionstest.New(true).WithLink("https://example/abc")
	config.DeleteErr = errBackend
	vm := options.NewViewModel(config)
	require.NoError(t, vm.RequestFetchLink())

	require.NoError(t, vm.RequestDeleteLink())
	assert.Equal(t, options.LinkState{Status: options.LinkAvailable, URL: "https://example/abc"}, vm.State().Link)
	assert.ErrorIs(t, vm.State().Err, options.ErrDeleteLink)
}

func TestDeleteLinkPendingShowsLoading(t *testing.T) {
	config := optionstest.New(true).WithLink("https://example/abc")
	config.DeleteWithheld = true
	vm := options.NewViewModel(config)
	require.NoError(t, vm.RequestFetchLink())

	require.NoError(t, vm.RequestDeleteLink())
	assert.Equal(t, options.LinkLoading, vm.State().Link.Status)
	config.PendingDelete(nil)
	assert.Equal(t, options.LinkAbsent, vm.State().Link.Status)
}

func TestGuestChangeDoesNotTouchLink(t *testing.T) {
	config := optionstest.New(true).WithLink("https://example/abc")
	config.SetAllowGuestsHandler = optionstest.Succeed
	vm := options.NewViewModel(config)
	require.NoError(t, vm.RequestFetchLink())

	require.NoError(t, vm.RequestSetAllowGuests(false))
	assert.False(t, vm.State().AllowGuests)
	assert.Equal(t, options.LinkAvailable, vm.State().Link.Status)
}

func TestCopyRequiresAvailableLink(t *testing.T) {
	config := optionstest.New(true).WithoutLink()
	vm := options.NewViewModel(config)

	assert.ErrorIs(t, vm.BeginCopy(), options.ErrNoLink)
	require.NoError(t, vm.RequestFetchLink())
	assert.ErrorIs(t, vm.BeginCopy(), options.ErrNoLink)
	assert.False(t, vm.State().CopyInProgress)
}

func TestBeginAndEndCopy(t *testing.T) {
	config := optionstest.New(true).WithLink("https://example/abc")
	vm := options.NewViewModel(config)
	require.NoError(t, vm.RequestFetchLink())
	states := recordStates(vm)

	require.NoError(t, vm.BeginCopy())
	assert.True(t, vm.State().CopyInProgress)
	vm.EndCopy()
	assert.False(t, vm.State().CopyInProgress)
	vm.EndCopy()
	assert.Len(t, *states, 2, "ending an inactive copy is a no-op")
}

func TestLinkRequestsRejectedWhenLinksDisabled(t *testing.T) {
	config := optionstest.New(true)
	config.Links = false
	vm := options.NewViewModel(config)

	assert.ErrorIs(t, vm.RequestFetchLink(), options.ErrLinksDisabled)
	assert.ErrorIs(t, vm.RequestCreateLink(), options.ErrLinksDisabled)
	assert.ErrorIs(t, vm.RequestDeleteLink(), options.ErrLinksDisabled)
	assert.Zero(t, config.FetchCalls+config.CreateCalls+config.DeleteCalls)
}

func TestNextRequestClearsError(t *testing.T) {
	config := optionstest.New(true)
	config.LinkResult = &optionstest.FetchResult{Err: errBackend}
	vm := options.NewViewModel(config)
	require.NoError(t, vm.RequestFetchLink())
	require.Error(t, vm.State().Err)

	config.LinkResult = &optionstest.FetchResult{}
	require.NoError(t, vm.RequestFetchLink())
	assert.NoError(t, vm.State().Err)
}

func TestLinkStatusString(t *testing.T) {
	assert.Equal(t, "available", options.LinkAvailable.String())
	assert.Equal(t, "invalid", options.LinkStatus(42).String())
}
