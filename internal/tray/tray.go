package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

const maxSessionSlots = 6

var (
	state   DaemonState
	onStart func()
	onExit  func()

	statusItem   *systray.MenuItem
	listenerItem *systray.MenuItem

	// Pre-allocated session menu slots
	sessionSlots [maxSessionSlots]*systray.MenuItem
	sessionUnpin [maxSessionSlots]*systray.MenuItem
	noneItem     *systray.MenuItem
	unpinAllItem *systray.MenuItem
	quitItem     *systray.MenuItem

	// Maps slot index → project path for unpin actions
	slotMu    sync.RWMutex
	slotPaths [maxSessionSlots]string
)

// Run starts the menu bar item. This blocks the calling goroutine: systray
// must occupy the main goroutine on macOS (Cocoa requirement).
// onStartFn is called when the tray is ready (launch the listener here).
// onExitFn is called when the tray exits (cleanup here).
func Run(s DaemonState, onStartFn, onExitFn func()) {
	state = s
	onStart = onStartFn
	onExit = onExitFn
	systray.Run(onReady, onQuit)
}

// Quit signals the tray to exit.
func Quit() {
	systray.Quit()
}

func onReady() {
	systray.SetTemplateIcon(iconData, iconData)
	systray.SetTooltip("Notchlight")

	header := systray.AddMenuItem("Notchlight", "")
	header.Disable()

	statusItem = systray.AddMenuItem("Starting...", "")
	statusItem.Disable()
	listenerItem = systray.AddMenuItem("", "")
	listenerItem.Disable()
	listenerItem.Hide()

	systray.AddSeparator()

	for i := 0; i < maxSessionSlots; i++ {
		sessionSlots[i] = systray.AddMenuItem("", "")
		sessionUnpin[i] = sessionSlots[i].AddSubMenuItem("Unpin Project", "")
		sessionSlots[i].Hide()
	}

	noneItem = systray.AddMenuItem("No sessions", "")
	noneItem.Disable()

	systray.AddSeparator()

	unpinAllItem = systray.AddMenuItem("Unpin All", "Clear every pinned project")
	quitItem = systray.AddMenuItem("Quit", "Shut down Notchlight")

	if onStart != nil {
		onStart()
	}

	Refresh()

	go handleClicks()
}

func onQuit() {
	if onExit != nil {
		onExit()
	}
}

func handleClicks() {
	for {
		select {
		case <-unpinAllItem.ClickedCh:
			if state != nil {
				state.UnpinAll()
			}

		case <-quitItem.ClickedCh:
			if state != nil {
				state.RequestShutdown()
			}

		case <-sessionUnpin[0].ClickedCh:
			unpinAtSlot(0)
		case <-sessionUnpin[1].ClickedCh:
			unpinAtSlot(1)
		case <-sessionUnpin[2].ClickedCh:
			unpinAtSlot(2)
		case <-sessionUnpin[3].ClickedCh:
			unpinAtSlot(3)
		case <-sessionUnpin[4].ClickedCh:
			unpinAtSlot(4)
		case <-sessionUnpin[5].ClickedCh:
			unpinAtSlot(5)
		}
	}
}

// unpinAtSlot unpins the project shown in the given menu slot.
func unpinAtSlot(slot int) {
	slotMu.RLock()
	path := slotPaths[slot]
	slotMu.RUnlock()

	if path == "" || state == nil {
		return
	}
	go state.UnpinPath(path)
}

// Refresh redraws the dynamic menu items from the daemon state. The daemon
// calls it from the store's change stream, so the menu tracks mutations
// without polling.
func Refresh() {
	if state == nil || statusItem == nil {
		return
	}

	sessions := state.Sessions()

	if state.Idle() {
		statusItem.SetTitle("Idle")
	} else {
		statusItem.SetTitle(fmt.Sprintf("%d sessions, %d pinned", len(sessions), state.PinnedCount()))
	}

	if state.ListenerRunning() {
		listenerItem.Hide()
		systray.SetTooltip(fmt.Sprintf("Notchlight — port %d", state.Port()))
	} else {
		listenerItem.SetTitle("Listener not running (port in use?)")
		listenerItem.Show()
		systray.SetTooltip("Notchlight — listener not running")
	}

	slotMu.Lock()
	for i := 0; i < maxSessionSlots; i++ {
		slotPaths[i] = ""
	}
	for i, sess := range sessions {
		if i >= maxSessionSlots {
			break
		}
		slotPaths[i] = sess.ProjectPath
	}
	slotMu.Unlock()

	for i := 0; i < maxSessionSlots; i++ {
		sessionSlots[i].Hide()
	}

	if len(sessions) == 0 {
		noneItem.Show()
		return
	}
	noneItem.Hide()
	for i, sess := range sessions {
		if i >= maxSessionSlots {
			break
		}
		sessionSlots[i].SetTitle(formatSessionTitle(sess))
		sessionSlots[i].Show()
	}
}

func formatSessionTitle(s SessionInfo) string {
	switch {
	case s.Waiting:
		return fmt.Sprintf("⚠ %s — needs permission", s.ProjectName)
	case s.CurrentTool != "":
		return fmt.Sprintf("● %s — %s", s.ProjectName, s.CurrentTool)
	case s.Active:
		return fmt.Sprintf("● %s — thinking", s.ProjectName)
	default:
		return fmt.Sprintf("○ %s", s.ProjectName)
	}
}
