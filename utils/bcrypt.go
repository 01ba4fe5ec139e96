package utils

import "golang.org/x/crypto/bcrypt"

// bcrypt cost 12 keeps a hash around 250ms on current Cloud Run CPUs,
// slow enough for an admin login surface.
const passwordHashCost = 12

func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), passwordHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
