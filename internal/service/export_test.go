package service

// SetCodeGenerator replaces the referral code source for tests
func (s *LedgerService) SetCodeGenerator(gen func() (string, error)) {
	s.generateCode = gen
}

var Outcome = outcome
