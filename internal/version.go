package internal

// Version is the beamtrans release version
const Version = "0.3.0"
