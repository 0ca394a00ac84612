package ui

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/subham/airportboard/internal/board"
	"github.com/subham/airportboard/internal/chart"
	"github.com/subham/airportboard/internal/chat"
	"github.com/subham/airportboard/internal/format"
	"github.com/subham/airportboard/internal/mapview"
	"github.com/subham/airportboard/internal/summary"
	"github.com/subham/airportboard/internal/tracker"
)

const (
	ScreenWidth  = 1280
	ScreenHeight = 900

	rowHeight     = 58
	maxLimitChars = 3
	chatMaxChars  = 500
)

// Layout.
var (
	headerRect  = rect{16, 16, 1248, 80}
	bannerRect  = rect{16, 104, 1248, 28}
	cardsY      = float32(140)
	cardH       = float32(110)
	chartRect   = rect{16, 266, 400, 280}
	mapRect     = rect{432, 266, 832, 280}
	flightsRect = rect{16, 562, 720, 322}
	chatRect    = rect{752, 562, 512, 322}
)

type focus int

const (
	focusNone focus = iota
	focusLimit
	focusChat
)

// hitBoxes are the clickable areas of the last drawn frame.
type hitBoxes struct {
	limit, fetch, refresh, chatInput, clear, send rect
}

// Options configures the dashboard.
type Options struct {
	Airport     string
	AirportName string
	Center      mapview.Point
	Zoom        int
	MapAPIKey   string
	Location    *time.Location
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Game implements ebiten.Game for the airport board.
type Game struct {
	ctx     context.Context
	opts    Options
	logger  *slog.Logger
	tracker *tracker.Tracker
	chat    *chat.Controller
	format  format.Formatter

	mapRender  *MapRenderer
	mapWidget  *mapview.Widget
	mapMounted bool
	chart      *chart.Chart

	fontFaceSm *text.GoTextFace
	fontFace   *text.GoTextFace
	fontFaceLg *text.GoTextFace
	fontFaceXl *text.GoTextFace

	summary   summary.Summary
	summaryAt time.Time
	stale     atomic.Bool

	focus     focus
	limitText string
	scroll    float64
	tick      int
	runes     []rune
	hit       hitBoxes
}

// NewGame creates the dashboard. ctx bounds every request it starts.
func NewGame(ctx context.Context, t *tracker.Tracker, c *chat.Controller, opts Options) *Game {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	mr := NewMapRenderer(mapRect.x+12, mapRect.y+44, mapRect.w-24, mapRect.h-56, opts.HTTPClient, opts.Logger)
	g := &Game{
		ctx:       ctx,
		opts:      opts,
		logger:    opts.Logger.With("component", "ui"),
		tracker:   t,
		chat:      c,
		format:    format.New(opts.Location),
		mapRender: mr,
		mapWidget: mapview.NewWidget(mr, mapview.Options{
			Code:   opts.Airport,
			Name:   opts.AirportName,
			Center: opts.Center,
			Zoom:   opts.Zoom,
			APIKey: opts.MapAPIKey,
			Logger: opts.Logger,
		}),
		chart: chart.New(chart.Mount{
			Width:  float64(chartRect.w - 32),
			Height: float64(chartRect.h - 64),
			Margin: chart.DefaultMargin,
		}),
		limitText: strconv.Itoa(t.Limit()),
	}
	g.stale.Store(true)
	t.Subscribe(func(tracker.State) { g.stale.Store(true) })
	g.initFonts()
	return g
}

func (g *Game) initFonts() {
	regSource, err := text.NewGoTextFaceSource(regularFontData())
	if err != nil {
		g.logger.Error("loading regular font failed", "error", err)
		return
	}
	medSource, err := text.NewGoTextFaceSource(mediumFontData())
	if err != nil {
		medSource = regSource
	}
	boldSource, err := text.NewGoTextFaceSource(boldFontData())
	if err != nil {
		boldSource = medSource
	}
	g.fontFaceSm = &text.GoTextFace{Source: regSource, Size: 13}
	g.fontFace = &text.GoTextFace{Source: medSource, Size: 15}
	g.fontFaceLg = &text.GoTextFace{Source: boldSource, Size: 20}
	g.fontFaceXl = &text.GoTextFace{Source: boldSource, Size: 30}
}

// Close tears down the map view.
func (g *Game) Close() {
	g.mapWidget.Unmount()
}

// Update is called every tick. It ends the game once ctx is done.
func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	g.tick++
	now := g.now()
	g.syncSummary(now)
	st := g.tracker.GetState()

	if !g.mapMounted {
		g.mapMounted = g.mapWidget.Mount(g.ctx, markerAttributes(g.summary))
	}

	g.handleMouse(st)
	g.handleKeys(st)
	return nil
}

// syncSummary recomputes the derived metrics after each tracker change and
// once a minute so the 24h window keeps moving. Chart and marker are only
// touched when the counts change.
func (g *Game) syncSummary(now time.Time) {
	if !g.stale.Swap(false) && now.Sub(g.summaryAt) < time.Minute {
		return
	}
	// Read after the swap so a change that lands in between is not lost.
	st := g.tracker.GetState()
	next := summary.Compute(st.Departures, st.Arrivals, now)
	changed := !g.chart.Drawn() || !next.Equal(g.summary)
	g.summary, g.summaryAt = next, now
	if !changed {
		return
	}
	g.chart.Render(chartData(next), now)
	g.mapWidget.Update(markerAttributes(next))
}

func (g *Game) handleMouse(st tracker.State) {
	x, y := ebiten.CursorPosition()
	if _, dy := ebiten.Wheel(); dy != 0 && flightsRect.contains(x, y) {
		g.scroll -= dy * 24
	}
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}

	switch {
	case g.hit.limit.contains(x, y):
		g.focus = focusLimit
	case g.hit.chatInput.contains(x, y):
		g.focus = focusChat
	case g.hit.fetch.contains(x, y):
		g.focus = focusNone
		g.refresh(st)
	case g.hit.refresh.contains(x, y):
		g.refresh(st)
	case g.hit.clear.contains(x, y):
		if !g.chat.Snapshot().Sending {
			g.chat.Clear()
		}
	case g.hit.send.contains(x, y):
		g.sendChat()
	case g.mapRender.Contains(x, y):
		g.focus = focusNone
		g.mapRender.Click(x, y)
	default:
		g.focus = focusNone
	}
}

func (g *Game) handleKeys(st tracker.State) {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.focus = focusNone
		return
	}
	enter := inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter)

	switch g.focus {
	case focusLimit:
		changed := false
		g.runes = ebiten.AppendInputChars(g.runes[:0])
		for _, r := range g.runes {
			if r >= '0' && r <= '9' && len(g.limitText) < maxLimitChars {
				g.limitText += string(r)
				changed = true
			}
		}
		if repeating(ebiten.KeyBackspace) && g.limitText != "" {
			g.limitText = g.limitText[:len(g.limitText)-1]
			changed = true
		}
		if changed {
			g.tracker.SetLimitText(g.limitText)
		}
		if enter {
			g.refresh(st)
		}

	case focusChat:
		input := g.chat.Input()
		changed := false
		g.runes = ebiten.AppendInputChars(g.runes[:0])
		for _, r := range g.runes {
			if unicode.IsPrint(r) && utf8.RuneCountInString(input) < chatMaxChars {
				input += string(r)
				changed = true
			}
		}
		if repeating(ebiten.KeyBackspace) && input != "" {
			_, size := utf8.DecodeLastRuneInString(input)
			input = input[:len(input)-size]
			changed = true
		}
		if changed {
			g.chat.SetInput(input)
		}
		if enter {
			g.sendChat()
		}

	default:
		if inpututil.IsKeyJustPressed(ebiten.KeyR) {
			g.refresh(st)
		}
	}
}

// repeating reports a key press and its auto-repeat.
func repeating(key ebiten.Key) bool {
	d := inpututil.KeyPressDuration(key)
	return d == 1 || (d > 20 && d%3 == 0)
}

// refresh fetches with the live limit unless a fetch is already running.
func (g *Game) refresh(st tracker.State) {
	if st.Refreshing {
		return
	}
	go func() {
		// Failures are recorded in the tracker state.
		_ = g.tracker.Refresh(g.ctx)
	}()
}

func (g *Game) sendChat() {
	if !g.chat.CanSend() {
		return
	}
	question := g.chat.Input()
	go func() {
		_ = g.chat.Send(g.ctx, question)
	}()
}

// Draw renders the entire screen.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)
	now := g.now()
	v := board.Build(g.format, g.opts.Airport, g.tracker.GetState(), g.summary, now)

	g.drawHeader(screen, v)
	if v.Error != "" {
		drawRoundedRect(screen, bannerRect.x, bannerRect.y, bannerRect.w, bannerRect.h, 6, colorError)
		drawText(screen, v.Error, float64(bannerRect.x)+12, float64(bannerRect.y)+6, g.fontFaceSm, colorText)
	}
	g.drawCards(screen, v)
	g.drawChartPanel(screen, v, now)
	g.drawMapPanel(screen)
	g.drawFlights(screen, v)
	g.drawChat(screen)
}

// now is the current instant in the display zone.
func (g *Game) now() time.Time {
	return time.Now().In(g.format.Location())
}

// Layout returns the logical screen dimensions.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ScreenWidth, ScreenHeight
}

func (g *Game) caret() bool {
	return (g.tick/20)%2 == 0
}

func (g *Game) drawHeader(screen *ebiten.Image, v board.View) {
	x, y := float64(headerRect.x), float64(headerRect.y)
	drawText(screen, "AIRPORT LIVE BOARD", x, y, g.fontFaceSm, colorAccent)
	drawText(screen, v.Title, x, y+18, g.fontFaceXl, colorText)
	drawText(screen, fmt.Sprintf("Live snapshots from Aviationstack for %s.", g.opts.AirportName), x, y+58, g.fontFaceSm, colorMuted)

	meta := rect{headerRect.x + headerRect.w - 300, headerRect.y, 300, 72}
	drawPanel(screen, meta)
	drawText(screen, "Airport", float64(meta.x)+16, float64(meta.y)+12, g.fontFaceSm, colorMuted)
	drawText(screen, v.Airport, float64(meta.x)+16, float64(meta.y)+32, g.fontFaceLg, colorText)
	drawText(screen, "Last update", float64(meta.x)+130, float64(meta.y)+12, g.fontFaceSm, colorMuted)
	drawText(screen, v.LastUpdate, float64(meta.x)+130, float64(meta.y)+32, g.fontFaceLg, colorText)
	if v.UpdatedAgo != format.Placeholder {
		drawText(screen, v.UpdatedAgo, float64(meta.x)+200, float64(meta.y)+38, g.fontFaceSm, colorMuted)
	}
}

func (g *Game) drawCards(screen *ebiten.Image, v board.View) {
	w := (headerRect.w - 3*16) / 4
	for i, c := range v.Cards {
		r := rect{headerRect.x + float32(i)*(w+16), cardsY, w, cardH}
		drawPanel(screen, r)
		vector.DrawFilledRect(screen, r.x+1, r.y+10, 3, r.h-20, colorAccent, false)
		drawText(screen, c.Label, float64(r.x)+18, float64(r.y)+14, g.fontFaceSm, colorMuted)
		drawText(screen, c.Value, float64(r.x)+18, float64(r.y)+36, g.fontFaceXl, colorText)
		drawText(screen, c.Meta, float64(r.x)+18, float64(r.y)+80, g.fontFaceSm, colorMuted)
	}

	r := rect{headerRect.x + 3*(w+16), cardsY, w, cardH}
	drawPanel(screen, r)
	drawText(screen, "Manual fetch", float64(r.x)+18, float64(r.y)+12, g.fontFace, colorText)
	drawText(screen, fmt.Sprintf("Pull the latest %s board instantly.", v.Airport), float64(r.x)+18, float64(r.y)+34, g.fontFaceSm, colorMuted)

	drawText(screen, "Limit", float64(r.x)+18, float64(r.y)+70, g.fontFaceSm, colorMuted)
	g.hit.limit = rect{r.x + 58, r.y + 62, 70, 32}
	drawInput(screen, g.hit.limit, g.limitText, strconv.Itoa(v.Limit), g.focus == focusLimit, g.caret(), g.fontFace)
	g.hit.fetch = drawButton(screen, "Fetch now", r.x+142, r.y+62, g.fontFace, colorAccent, !v.Refreshing)
}

func (g *Game) drawChartPanel(screen *ebiten.Image, v board.View, now time.Time) {
	r := chartRect
	drawPanel(screen, r)
	drawText(screen, "Traffic split", float64(r.x)+16, float64(r.y)+14, g.fontFaceLg, colorText)

	label := v.RefreshText
	bw := float32(textWidth(label, g.fontFace)) + 28
	g.hit.refresh = drawButton(screen, label, r.x+r.w-bw-12, r.y+10, g.fontFace, colorBlue, !v.Refreshing)

	g.drawChart(screen, g.chart, r.x+16, r.y+52, now)
}

func (g *Game) drawMapPanel(screen *ebiten.Image) {
	r := mapRect
	drawPanel(screen, r)
	drawText(screen, fmt.Sprintf("%s live map", g.opts.Airport), float64(r.x)+16, float64(r.y)+14, g.fontFaceLg, colorText)
	drawTextRight(screen, "Hover or click the marker", float64(r.x+r.w)-16, float64(r.y)+18, g.fontFaceSm, colorMuted)

	if err := g.mapWidget.Err(); err != nil && !g.mapWidget.Mounted() {
		drawTextCentered(screen, "Map unavailable", float64(r.x+r.w/2), float64(r.y+r.h/2), g.fontFace, colorMuted)
		return
	}
	g.mapRender.Draw(screen, g.fontFace, g.fontFaceSm)
}

func (g *Game) drawFlights(screen *ebiten.Image, v board.View) {
	r := flightsRect
	drawPanel(screen, r)
	drawText(screen, v.ListTitle, float64(r.x)+16, float64(r.y)+14, g.fontFaceLg, colorText)
	drawTextRight(screen, v.ListCount, float64(r.x+r.w)-16, float64(r.y)+18, g.fontFaceSm, colorMuted)

	list := rect{r.x + 8, r.y + 48, r.w - 16, r.h - 56}
	if v.Empty != "" {
		g.scroll = 0
		drawTextCentered(screen, v.Empty, float64(list.x+list.w/2), float64(list.y)+24, g.fontFace, colorMuted)
		return
	}

	content := float64(len(v.Rows) * rowHeight)
	maxScroll := content - float64(list.h)
	if maxScroll < 0 {
		maxScroll = 0
	}
	g.scroll = clamp(g.scroll, 0, maxScroll)

	dst := screen.SubImage(toImageRect(list)).(*ebiten.Image)
	for i, row := range v.Rows {
		y := float64(list.y) + float64(i*rowHeight) - g.scroll
		if y+rowHeight < float64(list.y) || y > float64(list.y+list.h) {
			continue
		}
		x := float64(list.x) + 8
		drawText(dst, row.FlightNumber, x, y+6, g.fontFace, colorText)
		drawText(dst, row.Airline, x+textWidth(row.FlightNumber, g.fontFace)+10, y+8, g.fontFaceSm, colorMuted)

		bw := float32(textWidth(row.Badge, g.fontFaceSm)) + 16
		bx := list.x + list.w - bw - 8
		drawRoundedRect(dst, bx, float32(y)+4, bw, 22, 6, colorBotBubble)
		drawText(dst, row.Badge, float64(bx)+8, y+7, g.fontFaceSm, colorText)

		drawText(dst, row.Route, x, y+30, g.fontFaceSm, colorText)
		drawText(dst, row.When, x+200, y+30, g.fontFaceSm, colorMuted)
		drawText(dst, row.Location, x+340, y+30, g.fontFaceSm, colorMuted)
		if i < len(v.Rows)-1 {
			vector.DrawFilledRect(dst, list.x+8, float32(y)+rowHeight-2, list.w-16, 1, colorPanelEdge, false)
		}
	}
}

func (g *Game) drawChat(screen *ebiten.Image) {
	r := chatRect
	snap := g.chat.Snapshot()
	drawPanel(screen, r)
	drawText(screen, fmt.Sprintf("%s Ops Assistant", g.opts.Airport), float64(r.x)+16, float64(r.y)+12, g.fontFaceLg, colorText)
	drawText(screen, fmt.Sprintf("Ask me anything about %s", g.opts.Airport), float64(r.x)+16, float64(r.y)+38, g.fontFaceSm, colorMuted)

	inputY := r.y + r.h - 48
	bottom := inputY - 8
	if snap.Error != "" {
		bottom -= 28
		drawRoundedRect(screen, r.x+12, bottom+2, r.w-24, 24, 6, colorError)
		drawText(screen, snap.Error, float64(r.x)+22, float64(bottom)+6, g.fontFaceSm, colorText)
		bottom -= 4
	}

	area := rect{r.x + 8, r.y + 62, r.w - 16, bottom - (r.y + 62)}
	dst := screen.SubImage(toImageRect(area)).(*ebiten.Image)

	type bubble struct {
		lines []string
		user  bool
	}
	maxW := float64(area.w) * 0.75
	bubbles := make([]bubble, 0, len(snap.Messages)+1)
	for _, m := range snap.Messages {
		bubbles = append(bubbles, bubble{lines: wrapText(m.Text, g.fontFaceSm, maxW-20), user: m.Role == chat.RoleUser})
	}
	if snap.Sending {
		bubbles = append(bubbles, bubble{lines: []string{"Thinking..."}})
	}

	// Newest at the bottom; older messages scroll out of the top.
	y := float64(area.y + area.h)
	for i := len(bubbles) - 1; i >= 0 && y > float64(area.y); i-- {
		b := bubbles[i]
		h := float64(len(b.lines))*18 + 14
		w := 0.0
		for _, l := range b.lines {
			w = max(w, textWidth(l, g.fontFaceSm))
		}
		w += 20
		y -= h + 6
		x := float64(area.x) + 4
		bg := colorBotBubble
		if b.user {
			x = float64(area.x+area.w) - w - 4
			bg = colorUserBubble
		}
		drawRoundedRect(dst, float32(x), float32(y), float32(w), float32(h), 8, bg)
		for j, l := range b.lines {
			drawText(dst, l, x+10, y+7+float64(j*18), g.fontFaceSm, colorText)
		}
	}

	g.hit.chatInput = rect{r.x + 12, inputY, r.w - 176, 36}
	drawInput(screen, g.hit.chatInput, snap.Input, "Ask about gates, delays, or next departures...", g.focus == focusChat, g.caret(), g.fontFaceSm)
	g.hit.clear = drawButton(screen, "Clear", r.x+r.w-158, inputY+2, g.fontFace, colorBlue, !snap.Sending)
	g.hit.send = drawButton(screen, "Send", r.x+r.w-80, inputY+2, g.fontFace, colorAccent, g.chat.CanSend())
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
