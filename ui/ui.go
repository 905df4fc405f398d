package ui

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"PomoHatch/control"
	"PomoHatch/i18n"
	"PomoHatch/progress"
	"PomoHatch/timer"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// RefreshTimeout bounds a totals refresh started from the pill.
const RefreshTimeout = 10 * time.Second

// App is the part of the AppManager the window drives.
type App interface {
	Dispatch(cmd control.Command) error
	HandleKeyRune(rune)
	Snapshot() timer.Snapshot
	RefreshTotals(ctx context.Context)
}

// MainView is the timer window. Its methods are safe to call from any
// goroutine.
type MainView struct {
	window fyne.Window

	modeButtons    map[timer.Mode]*widget.Button
	timeText       *canvas.Text
	cardRect       *canvas.Rectangle
	toggleButton   *widget.Button
	resetButton    *widget.Button
	completeButton *widget.Button
	pillText       *canvas.Text
	refreshButton  *widget.Button
	modeHintLabel  *widget.Label
	hintLabel      *widget.Label
}

// CreateMainWindow builds the window. The Complete Now button is only shown
// when devMode is set.
func CreateMainWindow(a App, fyneApp fyne.App, devMode bool) (*MainView, fyne.Window) {
	w := fyneApp.NewWindow(timer.AppTitle)
	v := &MainView{window: w, modeButtons: make(map[timer.Mode]*widget.Button)}

	modeBar := container.NewGridWithColumns(len(timer.AllModes))
	for _, m := range timer.AllModes {
		mode := m
		btn := widget.NewButton(i18n.T(mode.Label()), func() {
			a.Dispatch(control.Command{Type: control.CmdSelectMode, Mode: mode})
			w.Canvas().Focus(nil)
		})
		v.modeButtons[mode] = btn
		modeBar.Add(btn)
	}

	v.timeText = canvas.NewText(timer.FormatTime(0), color.White)
	v.timeText.TextSize = timer.FontSizeTime
	v.timeText.TextStyle.Bold = true
	v.timeText.Alignment = fyne.TextAlignCenter

	v.cardRect = canvas.NewRectangle(timer.FocusColor)
	v.cardRect.CornerRadius = timer.CornerRadius

	timeCard := NewTappableContainer(
		container.NewStack(v.cardRect, container.NewCenter(v.timeText)),
		func() { toggle(a) },
		func(*fyne.PointEvent) { a.Dispatch(control.Command{Type: control.CmdReset}) },
	)

	v.toggleButton = widget.NewButton(i18n.T("Start"), func() {
		toggle(a)
		w.Canvas().Focus(nil)
	})
	v.toggleButton.Importance = widget.HighImportance

	v.resetButton = widget.NewButton(i18n.T("Reset"), func() {
		a.Dispatch(control.Command{Type: control.CmdReset})
		w.Canvas().Focus(nil)
	})

	v.completeButton = widget.NewButton(i18n.T("Complete Now"), func() {
		a.Dispatch(control.Command{Type: control.CmdCompleteNow})
		w.Canvas().Focus(nil)
	})
	if !devMode {
		v.completeButton.Hide()
	}

	buttonsSpacer := canvas.NewRectangle(color.Transparent)
	buttonsSpacer.SetMinSize(fyne.NewSize(timer.GapButton, 0))
	controlButtons := container.NewHBox(
		layout.NewSpacer(),
		v.toggleButton, buttonsSpacer, v.resetButton, v.completeButton,
		layout.NewSpacer(),
	)

	v.pillText = canvas.NewText(PillText(progress.Totals{}), color.White)
	v.pillText.TextSize = timer.FontSizePills
	v.pillText.Alignment = fyne.TextAlignCenter
	pillRect := canvas.NewRectangle(withAlpha(timer.BackgroundColor, 0xc0))
	pillRect.CornerRadius = timer.CornerRadius
	v.refreshButton = widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), func() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), RefreshTimeout)
			defer cancel()
			a.RefreshTotals(ctx)
		}()
		w.Canvas().Focus(nil)
	})
	v.refreshButton.Importance = widget.LowImportance
	pill := container.NewStack(pillRect, container.NewBorder(nil, nil, nil, v.refreshButton, container.NewPadded(v.pillText)))

	v.modeHintLabel = widget.NewLabel("")
	v.modeHintLabel.Alignment = fyne.TextAlignCenter
	v.modeHintLabel.Importance = widget.LowImportance

	v.hintLabel = widget.NewLabel("")
	v.hintLabel.Alignment = fyne.TextAlignCenter

	content := container.NewVBox(
		pill,
		modeBar,
		timeCard,
		controlButtons,
		v.modeHintLabel,
		v.hintLabel,
	)

	w.Canvas().SetOnTypedRune(a.HandleKeyRune)
	w.SetContent(container.NewPadded(content))
	w.Resize(fyne.NewSize(timer.WindowWidth, timer.WindowHeight))
	w.SetFixedSize(true)

	v.Render(a.Snapshot())
	return v, w
}

func toggle(a App) {
	if a.Snapshot().Running {
		a.Dispatch(control.Command{Type: control.CmdPause})
	} else {
		a.Dispatch(control.Command{Type: control.CmdStart})
	}
}

// Render refreshes every widget from a snapshot.
func (v *MainView) Render(s timer.Snapshot) {
	fyne.Do(func() {
		v.window.SetTitle(timer.Title(s, i18n.T))

		v.timeText.Text = timer.FormatTime(s.Remaining)
		v.timeText.Refresh()

		v.cardRect.FillColor = ModeTint(s.Mode)
		v.cardRect.Refresh()

		for m, btn := range v.modeButtons {
			if m == s.Mode {
				btn.Importance = widget.HighImportance
			} else {
				btn.Importance = widget.MediumImportance
			}
			// Switching is rejected while running; the bar mirrors that.
			if s.Running {
				btn.Disable()
			} else {
				btn.Enable()
			}
			btn.Refresh()
		}

		v.toggleButton.SetText(ToggleLabel(s.Running))
		v.modeHintLabel.SetText(ModeHint(s.Mode))

		if s.State == timer.StateExpired {
			v.hintLabel.SetText(i18n.T("Time's up!"))
		} else if !s.Running {
			v.hintLabel.SetText("")
		}
	})
}

// ShowTotals updates the points pill.
func (v *MainView) ShowTotals(t progress.Totals) {
	fyne.Do(func() {
		v.pillText.Text = PillText(t)
		v.pillText.Refresh()
	})
}

// ShowNotice shows a short translated hint under the controls.
func (v *MainView) ShowNotice(msg string) {
	fyne.Do(func() {
		v.hintLabel.SetText(i18n.T(msg))
	})
}

// ModeTint is the card color for a mode.
func ModeTint(m timer.Mode) color.Color {
	if m == timer.ModeFocus {
		return timer.FocusColor
	}
	return timer.BreakColor
}

// ModeHint tells whether finishing the current mode earns a point.
func ModeHint(m timer.Mode) string {
	if m == timer.ModeFocus {
		return i18n.T("Completing this session awards +1 Pomodoro point.")
	}
	return i18n.T("Break sessions do not award points.")
}

// ToggleLabel is the Start/Pause button text.
func ToggleLabel(running bool) string {
	if running {
		return i18n.T("Pause")
	}
	return i18n.T("Start")
}

// PillText formats the totals shown in the points pill.
func PillText(t progress.Totals) string {
	return fmt.Sprintf("%s: %d  ·  %s: %d", i18n.T("Points"), t.Points, i18n.T("Sessions"), t.Sessions)
}

type TappableContainer struct {
	widget.BaseWidget
	Content           fyne.CanvasObject
	OnTappedPrimary   func()
	OnTappedSecondary func(e *fyne.PointEvent)
}

func NewTappableContainer(c fyne.CanvasObject, onP func(), onS func(e *fyne.PointEvent)) *TappableContainer {
	t := &TappableContainer{
		Content:           c,
		OnTappedPrimary:   onP,
		OnTappedSecondary: onS,
	}
	t.ExtendBaseWidget(t)
	return t
}

func (t *TappableContainer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.Content)
}

func (t *TappableContainer) Tapped(_ *fyne.PointEvent) {
	if t.OnTappedPrimary != nil {
		t.OnTappedPrimary()
	}
}

func (t *TappableContainer) TappedSecondary(e *fyne.PointEvent) {
	if t.OnTappedSecondary != nil {
		t.OnTappedSecondary(e)
	}
}

func withAlpha(c color.Color, alpha uint8) color.NRGBA {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: alpha}
}
