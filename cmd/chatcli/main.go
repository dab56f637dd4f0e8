package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"agri-advisor/pkg/agro"
	"agri-advisor/pkg/dashclient"

	"github.com/fatih/color"
)

var (
	promptColor    = color.New(color.FgGreen, color.Bold)
	assistantColor = color.New(color.FgCyan)
	errorColor     = color.New(color.FgRed)
	statusColor    = color.New(color.FgYellow)
	sourceColor    = color.New(color.FgHiBlack)
)

func main() {
	serverURL := flag.String("server", "http://localhost:8000", "gateway base URL")
	storagePath := flag.String("storage", "", "session store file (default ~/.agri-advisor/session.json)")
	flag.Parse()

	client, err := dashclient.New(dashclient.Config{
		BaseURL:     *serverURL,
		StoragePath: *storagePath,
	})
	if err != nil {
		errorColor.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	stopStream := startStream(rootCtx, client)

	statusColor.Printf("Session %s\n", client.SessionID())
	loc := client.State().Location()
	statusColor.Printf("Location: %s (%.4f, %.4f)\n", loc.Label, loc.Latitude, loc.Longitude)
	if err := client.RefreshTelemetry(rootCtx); err != nil {
		statusColor.Printf("Telemetry unavailable: %v\n", err)
	}
	fmt.Println("Type a question, or /help for commands.")

	printed := 0
	scanner := bufio.NewScanner(os.Stdin)
	for {
		promptColor.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue

		case line == "/quit" || line == "/exit":
			stopStream()
			return

		case line == "/help":
			printHelp()
			continue

		case line == "/reset":
			newID, err := client.ResetSession(rootCtx)
			if err != nil {
				errorColor.Printf("reset failed: %v\n", err)
				continue
			}
			stopStream()
			stopStream = startStream(rootCtx, client)
			printed = 0
			statusColor.Printf("Fresh session %s\n", newID)
			continue

		case strings.HasPrefix(line, "/units"):
			handleUnits(client, line)
			continue

		case strings.HasPrefix(line, "/pin"):
			handlePin(rootCtx, client, line)
			continue

		case line == "/telemetry":
			if err := client.RefreshTelemetry(rootCtx); err != nil {
				errorColor.Printf("telemetry refresh failed: %v\n", err)
				continue
			}
			printWeather(client)
			continue

		default:
			if err := client.SubmitQuery(rootCtx, line); err != nil {
				// The transcript already carries the error entry; the raw
				// cause only goes to the terminal.
				errorColor.Printf("(%v)\n", err)
			}
		}

		printed = printTranscript(client, printed)
	}
}

// startStream runs the push stream for the client's current session and
// returns a stop function. Used at startup and again after /reset, since a
// stream follows one session for its whole life.
func startStream(parent context.Context, client *dashclient.Client) func() {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		if err := client.Run(ctx); err != nil && ctx.Err() == nil {
			statusColor.Printf("\nlive updates offline: %v\n", err)
		}
	}()
	return cancel
}

func printHelp() {
	fmt.Println("  /reset            start a fresh session")
	fmt.Println("  /units [metric|imperial]   show or set the unit system")
	fmt.Println("  /pin <lat> <lon>  move the focus location")
	fmt.Println("  /telemetry        refresh and show current conditions")
	fmt.Println("  /quit             exit")
}

// handlePin drops the focus pin on new coordinates and refreshes telemetry
// for them.
func handlePin(ctx context.Context, client *dashclient.Client, line string) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		errorColor.Println("usage: /pin <lat> <lon>")
		return
	}
	lat, errLat := strconv.ParseFloat(fields[1], 64)
	lon, errLon := strconv.ParseFloat(fields[2], 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		errorColor.Println("usage: /pin <lat> <lon>")
		return
	}

	client.State().SelectPoint(lat, lon)
	client.State().SetLocation(dashclient.Location{
		Latitude:  lat,
		Longitude: lon,
		Label:     fmt.Sprintf("%.4f, %.4f", lat, lon),
		Zoom:      dashclient.DefaultZoom,
	})
	if err := client.RefreshTelemetry(ctx); err != nil {
		errorColor.Printf("telemetry refresh failed: %v\n", err)
		return
	}
	loc := client.State().Location()
	statusColor.Printf("Location: %s\n", loc.Label)
}

func handleUnits(client *dashclient.Client, line string) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		statusColor.Printf("units: %s\n", client.Units())
		return
	}
	if err := client.SetUnits(fields[1]); err != nil {
		errorColor.Printf("%v\n", err)
		return
	}
	statusColor.Printf("units: %s\n", client.Units())
}

// printTranscript renders conversation entries past the from index and
// returns the new high-water mark.
func printTranscript(client *dashclient.Client, from int) int {
	entries := client.State().Conversation()
	for _, e := range entries[min(from, len(entries)):] {
		switch {
		case e.Role == dashclient.RoleUser:
			// Echoed input; skip.
		case e.IsError:
			errorColor.Printf("\n%s\n", e.Content)
		default:
			assistantColor.Printf("\n%s\n", e.Content)
			if len(e.Sources) > 0 {
				sourceColor.Printf("sources: %s\n", strings.Join(e.Sources, ", "))
			}
		}
	}
	return len(entries)
}

func printWeather(client *dashclient.Client) {
	w := client.State().Weather()
	if w == nil {
		statusColor.Println("no weather data")
		return
	}

	temp, wind, precip := w.TemperatureC, w.WindSpeedKmh, w.PrecipitationMm
	tempUnit, windUnit, precipUnit := "°C", "km/h", "mm"
	if client.Units() == dashclient.UnitsImperial {
		temp = agro.CelsiusToFahrenheit(temp)
		wind = agro.KmhToMph(wind)
		precip = agro.MmToInches(precip)
		tempUnit, windUnit, precipUnit = "°F", "mph", "in"
	}

	fmt.Printf("%.1f%s  humidity %.0f%%  wind %.1f %s  precip %.2f %s\n",
		temp, tempUnit, w.RelativeHumidity, wind, windUnit, precip, precipUnit)
	fmt.Printf("ETo %.2f mm  spray drift %s  fungal %s\n",
		w.ReferenceETo, w.SprayDriftRisk, w.FungalRisk)

	sat := client.State().Satellite()
	if sat.NDVICurrent != nil {
		fmt.Printf("NDVI %.2f", *sat.NDVICurrent)
		if sat.WaterStress != "" {
			fmt.Printf("  water stress %s", sat.WaterStress)
		}
		fmt.Println()
	}

	for _, day := range w.Forecast {
		tMax, tMin := day.TempMax, day.TempMin
		precipSum := day.PrecipitationSum
		if client.Units() == dashclient.UnitsImperial {
			tMax = agro.CelsiusToFahrenheit(tMax)
			tMin = agro.CelsiusToFahrenheit(tMin)
			precipSum = agro.MmToInches(precipSum)
		}
		fmt.Printf("  %s  %.0f/%.0f%s  %.1f %s\n", day.Date, tMax, tMin, tempUnit, precipSum, precipUnit)
	}
}
