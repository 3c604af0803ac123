package constant

import "runtime"

const IsLinux = runtime.GOOS == "linux" || runtime.GOOS == "android"
