package dialog

// Spoken prompts. Control flow no longer depends on this wording; the
// session carries an explicit flow state.
const (
	Greeting = "Hello, thank you for calling the pharmacy. How can I help you today?"

	PromptVaccineType = "Which vaccine would you like? Please say the vaccine name."
	PromptPatientName = "Got it. May I have your full name, please?"
	PromptDesiredDate = "Thank you. On which date would you like to book your appointment? Please say the date."
	PromptPostalCode  = "Sure! What's your postal code?"

	SilenceReprompt       = "I'm sorry, I didn't hear anything. Could you please repeat?"
	SilenceGoodbye        = "We did not receive any input. Goodbye."
	LowConfidenceReprompt = "I'm sorry, I didn't catch that clearly. Could you please repeat?"

	TransferNotice = "I understand this is urgent. Please hold while I transfer you to a pharmacist right away."

	RefillReply = "Certainly. What is your prescription number?"
	HoursReply  = "Our pharmacy is open Monday to Friday, 9 AM to 6 PM, and Saturday 10 AM to 4 PM. Anything else I can help you with?"

	CompletionApology = "I'm sorry, I'm having trouble answering that right now. Could you please ask again?"
	PlacesApology     = "I'm sorry, I couldn't look up pharmacies near you right now. Please try again later."
	NoPharmaciesReply = "I couldn't find any pharmacies near that postal code."

	CorrectionAmbiguous = "I'm sorry, I'm not sure what you'd like to correct. Could you repeat that?"
)
