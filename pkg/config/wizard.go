package config

import (
	"strconv"

	"github.com/AlecAivazis/survey/v2"
)

// WizardSurvey runs a step by step workflow to gather everything the
// dashboard needs to run on a new station.
func (c *Config) WizardSurvey() error {
	if err := c.setServer(); err != nil {
		return err
	}

	if err := c.setService(); err != nil {
		return err
	}

	if err := c.setReceiver(); err != nil {
		return err
	}

	return c.setMQTT()
}

func (c *Config) setServer() error {
	qs := []*survey.Question{
		{
			Name:   "bind",
			Prompt: &survey.Input{Message: "Address to serve the dashboard on", Default: c.Bind},
		},
		{
			Name:   "stationConfigPath",
			Prompt: &survey.Input{Message: "Path to the station config file", Default: c.StationConfigPath},
		},
		{
			Name:   "locationsPath",
			Prompt: &survey.Input{Message: "Path to the known-locations file", Default: c.LocationsPath},
		},
	}

	answers := struct {
		Bind              string
		StationConfigPath string
		LocationsPath     string
	}{}
	if err := survey.Ask(qs, &answers); err != nil {
		return err
	}

	c.Bind = answers.Bind
	c.StationConfigPath = answers.StationConfigPath
	c.LocationsPath = answers.LocationsPath

	qMDNS := &survey.Confirm{
		Message: "Announce the dashboard over mDNS?",
		Default: c.AnnounceMDNS,
	}
	return survey.AskOne(qMDNS, &c.AnnounceMDNS)
}

func (c *Config) setService() error {
	qUnit := &survey.Input{
		Message: "Correction service systemd unit",
		Default: c.Service.Unit,
	}
	if err := survey.AskOne(qUnit, &c.Service.Unit); err != nil {
		return err
	}

	qUser := &survey.Confirm{
		Message: "Is the service a user unit (systemctl --user)?",
		Default: c.Service.UserMode,
	}
	return survey.AskOne(qUser, &c.Service.UserMode)
}

func (c *Config) setReceiver() error {
	qKind := &survey.Select{
		Message: "Where should telemetry come from?",
		Options: []string{ReceiverMonitor, ReceiverNMEATCP, ReceiverNMEASerial},
		Default: c.Receiver.Kind,
	}
	if err := survey.AskOne(qKind, &c.Receiver.Kind); err != nil {
		return err
	}

	switch c.Receiver.Kind {
	case ReceiverMonitor, ReceiverNMEATCP:
		qAddr := &survey.Input{
			Message: "Receiver address (host:port)",
			Default: c.Receiver.Address,
		}
		return survey.AskOne(qAddr, &c.Receiver.Address)
	case ReceiverNMEASerial:
		qPort := &survey.Input{
			Message: "Serial port device",
			Default: c.Receiver.SerialPort,
		}
		if err := survey.AskOne(qPort, &c.Receiver.SerialPort); err != nil {
			return err
		}

		baud := strconv.Itoa(c.Receiver.BaudRate)
		if c.Receiver.BaudRate == 0 {
			baud = "115200"
		}
		qBaud := &survey.Input{Message: "Baud rate", Default: baud}
		if err := survey.AskOne(qBaud, &baud); err != nil {
			return err
		}
		b, err := strconv.Atoi(baud)
		if err != nil {
			return err
		}
		c.Receiver.BaudRate = b
	}
	return nil
}

func (c *Config) setMQTT() error {
	qEnabled := &survey.Confirm{
		Message: "Mirror telemetry to an MQTT broker?",
		Default: c.MQTT.Enabled,
	}
	if err := survey.AskOne(qEnabled, &c.MQTT.Enabled); err != nil {
		return err
	}
	if !c.MQTT.Enabled {
		return nil
	}

	qEmbedded := &survey.Confirm{
		Message: "Run the embedded broker?",
		Default: c.MQTT.EmbeddedBroker,
	}
	if err := survey.AskOne(qEmbedded, &c.MQTT.EmbeddedBroker); err != nil {
		return err
	}

	if c.MQTT.EmbeddedBroker {
		bind := c.MQTT.BrokerBind
		if bind == "" {
			bind = ":1883"
		}
		qBind := &survey.Input{Message: "Broker bind address", Default: bind}
		if err := survey.AskOne(qBind, &c.MQTT.BrokerBind); err != nil {
			return err
		}
		if c.MQTT.Broker == "" {
			c.MQTT.Broker = "tcp://localhost" + c.MQTT.BrokerBind
		}
		return nil
	}

	qBroker := &survey.Input{
		Message: "Broker address (tcp://host:port)",
		Default: c.MQTT.Broker,
	}
	return survey.AskOne(qBroker, &c.MQTT.Broker)
}
