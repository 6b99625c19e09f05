package game

// emergencies are the flavour lines of the low-power warning.
var emergencies = []string{
	"Hull integrity critical. All hands to damage control!",
	"The reactor is running on its last cell. Find a repair station!",
	"Warning lights are flashing everywhere and the lights keep dimming.",
	"Water is seeping in through the aft bulkhead!",
	"One more hit and this submarine is going to the bottom.",
	"The engineer is shouting something about coolant. It does not sound good.",
}
