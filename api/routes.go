package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"
	// CoordinatorsEndpoint is the endpoint for registering a coordinator
	CoordinatorsEndpoint = "/coordinators"
	// CoordinatorEndpoint is the endpoint to get a coordinator record
	CoordinatorURLParam = "address"
	CoordinatorEndpoint = "/coordinators/{" + CoordinatorURLParam + "}"
	// CoordinatorKeysEndpoint is the endpoint for rotating coordinator keys
	CoordinatorKeysEndpoint = "/coordinators/{" + CoordinatorURLParam + "}/keys"
	// PollsEndpoint is the endpoint for creating and listing polls
	PollsEndpoint = "/polls"
	// PollEndpoint is the endpoint to get the poll info
	PollURLParam = "pollId"
	PollEndpoint = "/polls/{" + PollURLParam + "}"
	// PollRegistrationsEndpoint is the endpoint for participant registration
	PollRegistrationsEndpoint = "/polls/{" + PollURLParam + "}/registrations"
	// PollInteractionsEndpoint is the endpoint for submitting an interaction
	PollInteractionsEndpoint = "/polls/{" + PollURLParam + "}/interactions"
	// PollMergeEndpoint finalizes the poll trees after the voting window
	PollMergeEndpoint = "/polls/{" + PollURLParam + "}/merge"
	// PollNullifyEndpoint closes an empty poll without a tally
	PollNullifyEndpoint = "/polls/{" + PollURLParam + "}/nullify"
	// PollOutcomeEndpoint accepts proof batches and the final outcome
	PollOutcomeEndpoint = "/polls/{" + PollURLParam + "}/outcome"
)
