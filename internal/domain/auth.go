package domain

// TokenType is the scheme clients must use when presenting issued tokens.
const TokenType = "Bearer"
