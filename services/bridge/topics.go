package bridge

import "sigfoxbridge-go/bus"

func topicConfig() bus.Topic      { return bus.T("config", "bridge") }
func topicState() bus.Topic       { return bus.T("bridge", "state") }
func topicButtonEvent() bus.Topic { return bus.T("bridge", "button", "event") }
func topicSerialRx() bus.Topic    { return bus.T("bridge", "serial", "rx") }
func topicSerialTx() bus.Topic    { return bus.T("bridge", "serial", "tx") }
func topicLEDState() bus.Topic    { return bus.T("bridge", "led", "state") }
func ctrlWildcard() bus.Topic     { return bus.T("bridge", "control", "+") }
