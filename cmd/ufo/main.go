package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/labstack/gommon/log"

	"ufo-autopilot/internal/config"
	"ufo-autopilot/internal/flightdb"
	"ufo-autopilot/internal/mission"
	"ufo-autopilot/internal/sim"
	"ufo-autopilot/internal/ui"
	"ufo-autopilot/pkg/types"
)

type Camera struct {
	X, Y                 float64
	PanStartX, PanStartY int
	Scale                float64
}

type Game struct {
	width, height int
	camera        *Camera
	sim           *sim.Sim
	exec          *mission.Executor
	area          *mission.Area
	tel           *sim.Telemetry
	cruiseAlt     float64

	mu     sync.Mutex
	flying bool
	seq    int
	status string

	commandInput *ui.TextInput
}

func NewGame(screenWidth, screenHeight int, s *sim.Sim, exec *mission.Executor,
	area *mission.Area, tel *sim.Telemetry, cruiseAlt float64) *Game {
	game := &Game{
		sim:       s,
		exec:      exec,
		area:      area,
		tel:       tel,
		cruiseAlt: cruiseAlt,
		camera:    &Camera{Scale: 0.7},
		width:     screenWidth,
		height:    screenHeight,
		status:    "idle",
	}

	// center the origin on screen
	game.camera.X = -float64(screenWidth) / 2 / game.camera.Scale
	game.camera.Y = -float64(screenHeight) / 2 / game.camera.Scale

	game.commandInput = ui.NewTextInput(10, screenHeight-48, screenWidth/2, 30,
		"x y [z]  or a destination name", func(cmd string) {
			game.launchFlight(cmd)
		})

	return game
}

func (g *Game) Update() error {
	g.handleInput()
	g.commandInput.Update()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{0, 0, 0, 255})

	g.drawArea(screen)
	g.drawVehicle(screen)
	g.drawUI(screen)

	ebitenutil.DebugPrint(screen, "FPS: "+strconv.FormatFloat(ebiten.ActualFPS(), 'f', 2, 64))
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return g.width, g.height
}

func (g *Game) handleInput() {
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		g.commandInput.IsActive = g.commandInput.Hit(x, y)
	}

	_, wy := ebiten.Wheel()
	if wy != 0 {
		cursorX, cursorY := ebiten.CursorPosition()
		worldX, worldY := g.screenToWorld(float64(cursorX), float64(cursorY))

		oldScale := g.camera.Scale
		if wy > 0 {
			oldScale *= 1.1
		} else {
			oldScale /= 1.1
		}
		g.camera.Scale = math.Max(0.2, math.Min(5.0, oldScale))

		newWorldX, newWorldY := g.screenToWorld(float64(cursorX), float64(cursorY))
		g.camera.X -= (newWorldX - worldX)
		g.camera.Y -= (newWorldY - worldY)
	}

	// Right mouse button for pan
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		dx, dy := ebiten.CursorPosition()
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) {
			g.camera.PanStartX, g.camera.PanStartY = dx, dy
		} else {
			g.camera.X -= float64(dx-g.camera.PanStartX) / g.camera.Scale
			g.camera.Y -= float64(dy-g.camera.PanStartY) / g.camera.Scale
			g.camera.PanStartX, g.camera.PanStartY = dx, dy
		}
	}
}

func (g *Game) screenToWorld(sx, sy float64) (wx, wy float64) {
	wx = sx/g.camera.Scale + g.camera.X
	wy = sy/g.camera.Scale + g.camera.Y
	return
}

func (g *Game) worldToScreen(wx, wy float64) (sx, sy float64) {
	sx = (wx - g.camera.X) * g.camera.Scale
	sy = (wy - g.camera.Y) * g.camera.Scale
	return
}

func (g *Game) drawArea(screen *ebiten.Image) {
	bounds := [4]types.Vec2{
		g.area.Min,
		types.NewVec2(g.area.Max.X, g.area.Min.Y),
		g.area.Max,
		types.NewVec2(g.area.Min.X, g.area.Max.Y),
	}
	for i := range bounds {
		p1 := bounds[i]
		p2 := bounds[(i+1)%len(bounds)]
		x1, y1 := g.worldToScreen(p1.X, p1.Y)
		x2, y2 := g.worldToScreen(p2.X, p2.Y)
		vector.StrokeLine(screen, float32(x1), float32(y1), float32(x2), float32(y2),
			float32(1*g.camera.Scale), color.RGBA{0, 100, 0, 255}, false)
	}

	for _, d := range g.area.Destinations() {
		screenX, screenY := g.worldToScreen(d.Position.X, d.Position.Y)
		vector.DrawFilledCircle(screen, float32(screenX), float32(screenY),
			float32(3*g.camera.Scale), color.RGBA{0, 255, 255, 255}, false)
		ebitenutil.DebugPrintAt(screen, d.Name, int(screenX)+5, int(screenY)+5)
	}
}

func (g *Game) drawVehicle(screen *ebiten.Image) {
	snap := g.sim.Snapshot()
	screenX, screenY := g.worldToScreen(snap.X, snap.Y)

	body := color.RGBA{220, 220, 220, 255}
	if snap.Status() == sim.CRASHED {
		body = color.RGBA{120, 60, 60, 255}
	}
	vector.DrawFilledCircle(screen, float32(screenX), float32(screenY),
		float32(6*g.camera.Scale), body, false)

	if g.sim.Hazard() {
		vector.DrawFilledCircle(screen, float32(screenX), float32(screenY),
			float32(12*g.camera.Scale), color.RGBA{255, 0, 0, 100}, false)
	}

	lineLength := 30.0
	radians := snap.D * math.Pi / 180.0
	endX, endY := g.worldToScreen(snap.X+lineLength*math.Cos(radians), snap.Y+lineLength*math.Sin(radians))
	vector.StrokeLine(screen, float32(screenX), float32(screenY), float32(endX), float32(endY),
		1, color.RGBA{100, 100, 255, 255}, false)

	tagText := fmt.Sprintf("%s\nALT:%.1f\nSPD:%.1f\nHDG:%.0f\nSTS: %s",
		"UFO", snap.Z, snap.V, snap.D, sim.StatusStringMap[snap.Status()])
	ebitenutil.DebugPrintAt(screen, tagText, int(screenX)+10, int(screenY)-20)
}

func (g *Game) drawUI(screen *ebiten.Image) {
	g.commandInput.Draw(screen)

	g.mu.Lock()
	status := g.status
	g.mu.Unlock()
	ebitenutil.DebugPrintAt(screen, "Flight: "+status, 10, g.height-70)

	// last telemetry lines, newest at the bottom
	events := g.tel.Events()
	const shown = 8
	if len(events) > shown {
		events = events[len(events)-shown:]
	}
	for i, ev := range events {
		mark := "  "
		if ev.Urgent {
			mark = "! "
		}
		line := mark + string(ev.Flight) + " " + ev.Message
		ebitenutil.DebugPrintAt(screen, line, g.width-420, 20+i*16)
	}
}

// launchFlight parses the input box text and flies the plan on its own
// goroutine. One flight at a time; input during a flight is dropped.
func (g *Game) launchFlight(cmd string) {
	if cmd == "" {
		return
	}

	dst, alt, err := g.parseTarget(cmd)
	if err != nil {
		log.Warnf("input %q: %v", cmd, err)
		return
	}
	if !g.area.Contains(dst) {
		log.Warnf("input %q: destination outside the area", cmd)
		return
	}

	g.mu.Lock()
	if g.flying {
		g.mu.Unlock()
		log.Warn("a flight is already underway")
		return
	}
	g.flying = true
	g.seq++
	flight := types.FlightID(fmt.Sprintf("UFO-%d", g.seq))
	g.status = string(flight) + " underway"
	g.mu.Unlock()

	plan, err := mission.PlanFlight(flight, dst, alt)
	if err != nil {
		log.Warnf("input %q: %v", cmd, err)
		g.mu.Lock()
		g.flying = false
		g.status = "idle"
		g.mu.Unlock()
		return
	}

	go func() {
		rep, err := g.exec.Fly(context.Background(), plan)
		result := fmt.Sprintf("%s flew %.2f of %.2f m planned", flight, rep.Actual, rep.Planned)
		switch {
		case err != nil:
			result = fmt.Sprintf("%s failed: %v", flight, err)
		case !rep.Converged:
			result = fmt.Sprintf("%s aborted on %s: %s", flight,
				mission.LegStringMap[rep.FailedLeg], rep.Reason)
		}
		g.mu.Lock()
		g.flying = false
		g.status = result
		g.mu.Unlock()
	}()
}

// parseTarget accepts "x y", "x y z" or a destination name.
func (g *Game) parseTarget(cmd string) (types.Vec2, float64, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 1 {
		d, ok := g.area.Lookup(parts[0])
		if !ok {
			return types.Vec2{}, 0, fmt.Errorf("unknown destination %s", strings.ToUpper(parts[0]))
		}
		return d.Position, g.cruiseAlt, nil
	}
	if len(parts) != 2 && len(parts) != 3 {
		return types.Vec2{}, 0, fmt.Errorf("expected x y [z] or a destination name")
	}

	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return types.Vec2{}, 0, fmt.Errorf("bad coordinate %q", p)
		}
		vals[i] = v
	}
	alt := g.cruiseAlt
	if len(vals) == 3 {
		alt = vals[2]
	}
	return types.NewVec2(vals[0], vals[1]), alt, nil
}

func runHeadless(s *sim.Sim, exec *mission.Executor, dst types.Vec2, alt, planned float64, speedup int) int {
	fmt.Printf("%.2f\n", planned)

	s.Start(speedup)
	defer s.Terminate()

	plan, err := mission.PlanFlight("UFO", dst, alt)
	if err != nil {
		log.Error(err)
		return 1
	}
	rep, err := exec.Fly(context.Background(), plan)
	if err != nil {
		log.Error(err)
		return 1
	}

	fmt.Printf("%.2f\n", rep.Actual)
	if !rep.Converged {
		log.Errorf("flight aborted on %s: %s (%v)",
			mission.LegStringMap[rep.FailedLeg], rep.Reason, rep.Err)
		return 1
	}
	return 0
}

func setLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		log.SetLevel(log.DEBUG)
	case "warn":
		log.SetLevel(log.WARN)
	case "error":
		log.SetLevel(log.ERROR)
	default:
		log.SetLevel(log.INFO)
	}
}

func main() {
	var (
		x             = flag.Float64("x", 0, "destination x [m]")
		y             = flag.Float64("y", 0, "destination y [m]")
		z             = flag.Float64("z", 0, "cruise altitude [m], 0 takes the config value")
		dest          = flag.String("dest", "", "named destination instead of -x/-y")
		headless      = flag.Bool("headless", false, "fly without the map window")
		planOnly      = flag.Bool("plan-only", false, "print the planned distance and exit")
		speedup       = flag.Int("speedup", 0, "simulation speedup 1-25, 0 takes the config value")
		configPath    = flag.String("config", "", "tuning file (JSON)")
		dbPath        = flag.String("flightdb", "", "flight history database")
		telemetryPath = flag.String("telemetry", "", "telemetry recording file")
		logLevel      = flag.String("log-level", "info", "debug, info, warn or error")
	)
	flag.Parse()
	setLogLevel(*logLevel)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}

	if os.Getenv("UFO_HEADLESS") == "1" {
		*headless = true
	}

	area := mission.NewArea()
	dst := types.NewVec2(*x, *y)
	if *dest != "" {
		d, ok := area.Lookup(*dest)
		if !ok {
			log.Fatalf("unknown destination %q", *dest)
		}
		dst = d.Position
	}
	if !area.Contains(dst) {
		log.Fatalf("destination (%.1f, %.1f) is outside the operating area", dst.X, dst.Y)
	}

	alt := *z
	if alt <= 0 {
		alt = cfg.GetCruiseAltitude()
	}

	planned := mission.FlightDistance(types.NewVec2(0, 0), dst, alt)
	if *planOnly {
		fmt.Printf("%.2f\n", planned)
		return
	}

	spd := *speedup
	if spd == 0 {
		spd = cfg.GetSpeedup()
	}

	s := sim.New()
	tel := sim.NewTelemetry(cfg.GetTelemetryLimit())
	var rec *sim.FlightRecorder
	if *telemetryPath != "" {
		rec = sim.NewFlightRecorder(*telemetryPath)
		defer rec.Close()
		tel.WithRecorder(rec)
	}
	s.SetTelemetry(tel)

	exec, err := mission.NewExecutor(s, cfg.Autopilot())
	if err != nil {
		log.Fatal(err)
	}
	var db *flightdb.DB
	if *dbPath != "" {
		if db, err = flightdb.Open(*dbPath); err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		exec.WithFlightDB(db)
	}

	if *headless {
		code := runHeadless(s, exec, dst, alt, planned, spd)
		// os.Exit skips the deferred closers
		if rec != nil {
			rec.Close()
		}
		if db != nil {
			db.Close()
		}
		os.Exit(code)
	}

	s.Start(spd)
	defer s.Terminate()

	ebiten.SetWindowSize(1024, 768)
	ebiten.SetWindowTitle("UFO Autopilot")
	ebiten.SetVsyncEnabled(true)

	game := NewGame(1024, 768, s, exec, area, tel, alt)
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
