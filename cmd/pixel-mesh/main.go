package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app        = kingpin.New("pixel-mesh", "Wireless pixel mesh sender and receiver")
	debug      = app.Flag("debug", "Turn on debug logging.").Bool()
	configFile = app.Flag("config", "Configuration file (YAML or JSON).").Short('c').Default("config.yaml").String()

	receive = app.Command("receive", "Receive pixels and drive the LED strip.")

	send      = app.Command("send", "Send a single pixel.")
	sendIndex = send.Arg("index", "Logical pixel index.").Required().Uint8()
	sendRed   = send.Arg("red", "Red component.").Required().Uint8()
	sendGreen = send.Arg("green", "Green component.").Required().Uint8()
	sendBlue  = send.Arg("blue", "Blue component.").Required().Uint8()

	fadeCmd      = app.Command("fade", "Send a fade between two colors.")
	fadeIndex    = fadeCmd.Flag("index", "Logical pixel index. Defaults to the configured base index.").Default("-1").Int()
	fadeFrom     = fadeCmd.Flag("from", "Start color. Defaults to the configured starting color.").String()
	fadeTo       = fadeCmd.Flag("to", "End color.").Default("#000000").String()
	fadeSteps    = fadeCmd.Flag("steps", "Number of steps. Defaults to the configured fade steps.").Default("-1").Int()
	fadeDuration = fadeCmd.Flag("duration", "Length of the fade. Defaults to the configured fade duration.").Duration()

	consoleCmd   = app.Command("console", "Send pixels read line by line from a serial port or stdin, and fades from buttons.")
	consoleStdin = consoleCmd.Flag("stdin", "Read from stdin instead of the configured serial device.").Bool()

	version = app.Command("version", "Show current version.")
)

func main() {
	cmd, err := app.Parse(os.Args[1:])
	if err != nil {
		fmt.Printf("%v: Try --help\n", err.Error())
		os.Exit(1)
	}

	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if *debug {
		log.Info("Enabling debug output...")
		log.SetLevel(log.DebugLevel)
	}

	if cmd == version.FullCommand() {
		showVersion()
		return
	}

	conf, err := readConfig(*configFile)
	if err != nil {
		log.Fatal("Unable to read config: ", err)
	}

	switch cmd {
	case receive.FullCommand():
		err = startReceiver(conf)
	case send.FullCommand():
		err = sendPixel(conf, pixelFromArgs())
	case fadeCmd.FullCommand():
		err = sendFade(conf)
	case consoleCmd.FullCommand():
		err = startConsole(conf)
	default:
		kingpin.FatalUsage("Unrecognized command")
	}
	if err != nil {
		log.Fatal(err)
	}
	log.Info("Done...")
}
