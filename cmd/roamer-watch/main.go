// Command roamer-watch charts a rover's telemetry stream in the terminal.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/roamer-robotics/roamer/telemetry"
)

const (
	headerHeight = 2
	legendHeight = 2
	statusHeight = 2
	borderSize   = 2
)

var sensorColors = map[string]string{
	"front": "196", // red
	"left":  "46",  // green
	"right": "51",  // cyan
}

var sensorOrder = []string{"front", "left", "right"}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type snapshotMsg telemetry.Snapshot

func waitForSnapshot(snaps <-chan telemetry.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-snaps
		if !ok {
			return tea.Quit()
		}
		return snapshotMsg(snap)
	}
}

type model struct {
	snaps    <-chan telemetry.Snapshot
	chart    *streamlinechart.Model
	width    int
	height   int
	last     telemetry.Snapshot
	received int
	quitting bool
}

func initialModel(snaps <-chan telemetry.Snapshot, maxRangeCM float64) model {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(0, maxRangeCM),
	)
	for _, name := range sensorOrder {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(sensorColors[name]))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}
	return model{
		snaps: snaps,
		chart: &chart,
	}
}

func (m *model) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - statusHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m model) Init() tea.Cmd {
	return waitForSnapshot(m.snaps)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w, h := m.chartSize()
		m.chart.Resize(w, h)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case snapshotMsg:
		snap := telemetry.Snapshot(msg)
		m.chart.PushDataSet("front", snap.FrontCM)
		m.chart.PushDataSet("left", snap.LeftCM)
		m.chart.PushDataSet("right", snap.RightCM)
		m.chart.DrawAll()
		m.last = snap
		m.received++
		return m, waitForSnapshot(m.snaps)
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return "Watch stopped.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Roamer Telemetry"))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	if m.received == 0 {
		sb.WriteString(statusStyle.Render("Waiting for telemetry... press 'q' to quit"))
	} else {
		sb.WriteString(statusStyle.Render(fmt.Sprintf(
			"%s (%.2f, %.2f)  front %.1fcm  left %.1fcm  right %.1fcm  [%d msgs]",
			m.last.HeadingStr, m.last.LeftDuty, m.last.RightDuty,
			m.last.FrontCM, m.last.LeftCM, m.last.RightCM, m.received,
		)))
	}
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend() string {
	items := make([]string, 0, len(sensorOrder))
	for _, name := range sensorOrder {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(sensorColors[name])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+name)
	}
	return strings.Join(items, "  ")
}

func main() {
	var (
		broker   = flag.String("broker", "tcp://127.0.0.1:1883", "MQTT broker address")
		topic    = flag.String("topic", "roamer/status", "telemetry topic to subscribe to")
		maxRange = flag.Float64("max-range", 400, "chart ceiling in centimeters")
	)
	flag.Parse()

	snaps := make(chan telemetry.Snapshot, 16)

	opts := mqtt.NewClientOptions().
		AddBroker(*broker).
		SetClientID("roamer-watch").
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		fmt.Fprintf(os.Stderr, "cannot connect to %s: %v\n", *broker, token.Error())
		os.Exit(1)
	}
	defer client.Disconnect(250)

	token := client.Subscribe(*topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var snap telemetry.Snapshot
		if err := json.Unmarshal(msg.Payload(), &snap); err != nil {
			return
		}
		select {
		case snaps <- snap:
		default: // drop when the UI is behind
		}
	})
	if token.Wait() && token.Error() != nil {
		fmt.Fprintf(os.Stderr, "cannot subscribe to %s: %v\n", *topic, token.Error())
		os.Exit(1)
	}

	p := tea.NewProgram(initialModel(snaps, *maxRange), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
